package feedback

import (
	"time"

	"messease/internal/domain/users"
)

const DefaultPollTarget = "All Students"

type Poll struct {
	ID         string        `json:"id"`
	Question   string        `json:"question"`
	Options    []string      `json:"options"`
	TotalVotes int           `json:"totalVotes"`
	Multiple   bool          `json:"multiple"`
	Target     string        `json:"target"`
	Creator    users.Creator `json:"creator"`
	CreatedAt  time.Time     `json:"time"`
}

type NewPoll struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Multiple bool     `json:"multiple"`
	Target   string   `json:"target"`
}

type Review struct {
	ID        string        `json:"id"`
	Food      string        `json:"food"`
	FoodType  string        `json:"foodtype"`
	Day       string        `json:"day"`
	Review    string        `json:"review"`
	Rating    int           `json:"rating"`
	Solved    bool          `json:"solved"`
	Photos    []string      `json:"photos"`
	Creator   users.Creator `json:"creator"`
	CreatedAt time.Time     `json:"dateTime"`
}

type ReviewFilter struct {
	Solved *bool
	Limit  int
	Offset int
}

type PollList struct {
	Polls []Poll
	Total int
}

type ReviewList struct {
	Reviews []Review
	Total   int
}
