package models

type Bucket string

const (
	BucketTodo       Bucket = "todo"
	BucketInProgress Bucket = "inprogress"
	BucketDone       Bucket = "done"
)

// Buckets lists the kanban columns in board order.
var Buckets = []Bucket{BucketTodo, BucketInProgress, BucketDone}

func (b Bucket) Valid() bool {
	switch b {
	case BucketTodo, BucketInProgress, BucketDone:
		return true
	}
	return false
}

type Task struct {
	ProjectID   uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ID          int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Content     string `gorm:"type:text;not null" json:"content"`
	MilestoneID *int   `json:"milestoneId"`

	// set by the repository when the board is flattened for storage
	Bucket   Bucket `gorm:"type:varchar(20);not null" json:"-"`
	Position int    `gorm:"not null;default:0" json:"-"`
}

// Board partitions a project's tasks into the three kanban buckets.
type Board struct {
	Todo       []Task `json:"todo"`
	InProgress []Task `json:"inprogress"`
	Done       []Task `json:"done"`
}

// Column returns the slice backing bucket, or nil for an unknown bucket.
func (b *Board) Column(bucket Bucket) *[]Task {
	switch bucket {
	case BucketTodo:
		return &b.Todo
	case BucketInProgress:
		return &b.InProgress
	case BucketDone:
		return &b.Done
	}
	return nil
}

// All returns every task in board order: todo, in progress, done.
func (b Board) All() []Task {
	all := make([]Task, 0, len(b.Todo)+len(b.InProgress)+len(b.Done))
	all = append(all, b.Todo...)
	all = append(all, b.InProgress...)
	all = append(all, b.Done...)
	return all
}

func (b Board) Len() int {
	return len(b.Todo) + len(b.InProgress) + len(b.Done)
}

// Find locates a task by id and reports the bucket holding it.
func (b Board) Find(id int) (Task, Bucket, bool) {
	for _, bucket := range Buckets {
		col := b.Column(bucket)
		for _, t := range *col {
			if t.ID == id {
				return t, bucket, true
			}
		}
	}
	return Task{}, "", false
}
