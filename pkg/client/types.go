package client

import "time"

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse carries NewUser after signup and User after login.
type AuthResponse struct {
	Message string `json:"message"`
	NewUser *User  `json:"newUser,omitempty"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token"`
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

type Task struct {
	ID              string     `json:"_id"`
	OwnerID         string     `json:"userId"`
	Text            string     `json:"text"`
	Completed       bool       `json:"completed"`
	Priority        Priority   `json:"priority"`
	Category        Category   `json:"category"`
	DueDate         *time.Time `json:"dueDate"`
	IsCarriedOver   bool       `json:"isCarriedOver"`
	CarriedOverFrom *time.Time `json:"carriedOverFrom"`
	Order           int        `json:"order"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewTask is the create payload. Empty priority and category take the
// server defaults (medium, other).
type NewTask struct {
	Text      string     `json:"text"`
	Completed bool       `json:"completed,omitempty"`
	Priority  Priority   `json:"priority,omitempty"`
	Category  Category   `json:"category,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type Bucket struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

type DailyStat struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

type Analytics struct {
	TotalTasks     int                 `json:"totalTasks"`
	CompletedTasks int                 `json:"completedTasks"`
	CompletionRate int                 `json:"completionRate"`
	ByCategory     map[Category]Bucket `json:"byCategory"`
	ByPriority     map[Priority]Bucket `json:"byPriority"`
	DailyStats     []DailyStat         `json:"dailyStats"`
}

type Mood string

const (
	MoodGreat    Mood = "great"
	MoodGood     Mood = "good"
	MoodOkay     Mood = "okay"
	MoodBad      Mood = "bad"
	MoodTerrible Mood = "terrible"
)

type Entry struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	EntryDate time.Time `json:"entryDate"`
	Mood      *Mood     `json:"mood"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewEntry is the create payload. A nil EntryDate means now.
type NewEntry struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	EntryDate *time.Time `json:"entryDate,omitempty"`
	Mood      Mood       `json:"mood,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

// MonthItem is the calendar view of an entry; it has no content.
type MonthItem struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	EntryDate time.Time `json:"entryDate"`
	Mood      *Mood     `json:"mood"`
	Tags      []string  `json:"tags"`
}
