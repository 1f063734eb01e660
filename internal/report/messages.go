package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EmailJob is the message consumed by the mail sender.
type EmailJob struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEmailJob(userID int64, to, subject, body string, now time.Time) *EmailJob {
	return &EmailJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: now,
	}
}

func (j *EmailJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

func EmailJobFromJSON(data []byte) (*EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
