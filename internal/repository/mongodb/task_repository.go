package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow/internal/domain"
	"taskflow/internal/repository"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Owner       primitive.ObjectID `bson:"owner"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Priority    string             `bson:"priority"`
	Status      string             `bson:"status"`
	Completed   bool               `bson:"completed"`
	DueDate     *time.Time         `bson:"dueDate"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *taskDocument) toDomain() domain.Task {
	task := domain.Task{
		ID:          d.ID.Hex(),
		Owner:       d.Owner.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Priority:    domain.Priority(d.Priority),
		Status:      d.Status,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.DueDate != nil {
		t := d.DueDate.UTC()
		task.DueDate = &t
	}
	return task
}

type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) repository.TaskRepository {
	return &TaskRepository{coll: db.Collection(tasksCollection)}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("owner_created"),
	})
	if err != nil {
		return fmt.Errorf("create tasks owner index: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	owner, err := primitive.ObjectIDFromHex(task.Owner)
	if err != nil {
		return fmt.Errorf("task owner %q: %w", task.Owner, err)
	}

	ts := now()
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Owner:       owner,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Status:      task.Status,
		Completed:   task.Completed,
		DueDate:     truncated(task.DueDate),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return translate(err, "insert task")
	}

	task.ID = doc.ID.Hex()
	task.DueDate = doc.DueDate
	task.CreatedAt = ts
	task.UpdatedAt = ts
	return nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Task, error) {
	tasks := []domain.Task{}
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return tasks, nil
	}

	// ObjectIDs grow with insertion time, so _id breaks createdAt ties
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"owner": oid}, opts)
	if err != nil {
		return nil, translate(err, "find tasks")
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc taskDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) GetForOwner(ctx context.Context, id, owner string) (*domain.Task, error) {
	filter, err := ownedFilter(id, owner)
	if err != nil {
		return nil, err
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "find task")
	}
	task := doc.toDomain()
	return &task, nil
}

func (r *TaskRepository) UpdateForOwner(ctx context.Context, task *domain.Task) error {
	filter, err := ownedFilter(task.ID, task.Owner)
	if err != nil {
		return err
	}

	task.UpdatedAt = now()
	task.DueDate = truncated(task.DueDate)
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"title":       task.Title,
		"description": task.Description,
		"priority":    string(task.Priority),
		"status":      task.Status,
		"completed":   task.Completed,
		"dueDate":     task.DueDate,
		"updatedAt":   task.UpdatedAt,
	}})
	if err != nil {
		return translate(err, "update task")
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteForOwner(ctx context.Context, id, owner string) error {
	filter, err := ownedFilter(id, owner)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return translate(err, "delete task")
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func ownedFilter(id, owner string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ownerID, err := objectID(owner)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid, "owner": ownerID}, nil
}

func truncated(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
