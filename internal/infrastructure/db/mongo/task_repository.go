package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/task-system/internal/core/domain"
	"github.com/99minutos/task-system/internal/core/ports"
)

const collectionTasks = "tasks"

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(collectionTasks)}
}

// mongoTask stores user references as ObjectIDs so they can be joined
// against the users collection.
type mongoTask struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	Priority    string              `bson:"priority"`
	Status      string              `bson:"status"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"created_by"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

func (t mongoTask) toDomain() *domain.Task {
	out := &domain.Task{
		ID:          t.ID.Hex(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    domain.TaskPriority(t.Priority),
		Status:      domain.TaskStatus(t.Status),
		CreatedBy:   t.CreatedBy.Hex(),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.AssignedTo != nil {
		out.AssignedTo = t.AssignedTo.Hex()
	}
	return out
}

// Create inserts a new task document.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdBy, err := primitive.ObjectIDFromHex(t.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("insert task: invalid creator id %q", t.CreatedBy)
	}
	doc := mongoTask{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CreatedBy:   createdBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo != "" {
		oid, err := primitive.ObjectIDFromHex(t.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assignee id", domain.ErrValidation)
		}
		doc.AssignedTo = &oid
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByID retrieves a task regardless of owner.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoTask
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns the tasks matching filter, oldest first.
func (r *TaskRepository) List(ctx context.Context, f ports.TaskFilter) ([]*domain.Task, error) {
	filter, ok := listFilter(f)
	if !ok {
		return []*domain.Task{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoTask
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, len(docs))
	for i, d := range docs {
		tasks[i] = d.toDomain()
	}
	return tasks, nil
}

// Update applies patch to the task identified by id and owned by ownerID and
// returns the document after the update.
func (r *TaskRepository) Update(ctx context.Context, id, ownerID string, p ports.TaskPatch) (*domain.Task, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	update, err := patchUpdate(p, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoTask
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes the task identified by id and owned by ownerID.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoTask
	if err := r.col.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates necessary indexes on the tasks collection.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// listFilter translates a TaskFilter into a query. ok is false when an id in
// the filter cannot match any document.
func listFilter(f ports.TaskFilter) (bson.M, bool) {
	createdBy, err := primitive.ObjectIDFromHex(f.CreatedBy)
	if err != nil {
		return nil, false
	}

	filter := bson.M{"created_by": createdBy}
	if f.Priority != "" {
		filter["priority"] = string(f.Priority)
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.AssignedTo != "" {
		assignee, err := primitive.ObjectIDFromHex(f.AssignedTo)
		if err != nil {
			return nil, false
		}
		filter["assigned_to"] = assignee
	}
	return filter, true
}

func ownedFilter(id, ownerID string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "created_by": owner}, true
}

// patchUpdate builds the $set/$unset document for a partial update.
func patchUpdate(p ports.TaskPatch, now time.Time) (bson.M, error) {
	set := bson.M{"updated_at": now}
	update := bson.M{}

	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Priority != nil {
		set["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.AssignedTo != nil {
		if *p.AssignedTo == "" {
			update["$unset"] = bson.M{"assigned_to": ""}
		} else {
			oid, err := primitive.ObjectIDFromHex(*p.AssignedTo)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid assignee id", domain.ErrValidation)
			}
			set["assigned_to"] = oid
		}
	}

	update["$set"] = set
	return update, nil
}
