package users

import "time"

const DesignationStudent = "Student"

type User struct {
	ID          string    `json:"uid"`
	Name        string    `json:"name"`
	Gender      string    `json:"gender"`
	Batch       string    `json:"batch"`
	PassingYear string    `json:"passingYear"`
	Designation string    `json:"designation"`
	Email       string    `json:"email"`
	Member      bool      `json:"member"`
	PhotoURL    string    `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsStaff reports whether the user holds a non-student designation.
func (u User) IsStaff() bool {
	return u.Designation != "" && u.Designation != DesignationStudent
}

// Creator is the denormalized author embedded in menus, polls and reviews.
type Creator struct {
	Name string `json:"name"`
	Role string `json:"role"`
	ID   string `json:"id"`
}

type Filter struct {
	Search      string
	Designation string
	Limit       int
	Offset      int
}

type ListResult struct {
	Users []User
	Total int
}

// Update carries administrative edits; nil fields are left unchanged.
type Update struct {
	Name        *string `json:"name"`
	Gender      *string `json:"gender"`
	Batch       *string `json:"batch"`
	PassingYear *string `json:"passingYear"`
	Designation *string `json:"designation"`
	Email       *string `json:"email"`
	Member      *bool   `json:"member"`
}

func (u Update) Empty() bool {
	return u.Name == nil && u.Gender == nil && u.Batch == nil && u.PassingYear == nil &&
		u.Designation == nil && u.Email == nil && u.Member == nil
}

// Apply returns a copy of user with the update applied.
func (u Update) Apply(user User) User {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Gender != nil {
		user.Gender = *u.Gender
	}
	if u.Batch != nil {
		user.Batch = *u.Batch
	}
	if u.PassingYear != nil {
		user.PassingYear = *u.PassingYear
	}
	if u.Designation != nil {
		user.Designation = *u.Designation
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Member != nil {
		user.Member = *u.Member
	}
	return user
}
