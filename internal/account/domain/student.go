package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type Degree string

const (
	DegreeBTech Degree = "btech"
	DegreeMTech Degree = "mtech"
	DegreeMBA   Degree = "mba"
)

func (d Degree) Valid() bool {
	return d == DegreeBTech || d == DegreeMTech || d == DegreeMBA
}

// Student is a candidate account.
type Student struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	Gender          Gender
	Degree          Degree
	Branch          string
	RollNo          string
	CGPI            float64
	TenthMarks      float64
	TwelfthMarks    float64
	GraduatingYear  int
	ProfileComplete bool
	Placed          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Creds Credentials
}

// StudentView is the client projection of a Student.
type StudentView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Gender          Gender    `json:"gender,omitempty"`
	Degree          Degree    `json:"degree,omitempty"`
	Branch          string    `json:"branch,omitempty"`
	RollNo          string    `json:"rollNo,omitempty"`
	CGPI            float64   `json:"cgpi,omitempty"`
	TenthMarks      float64   `json:"tenthMarks,omitempty"`
	TwelfthMarks    float64   `json:"twelfthMarks,omitempty"`
	GraduatingYear  int       `json:"graduatingYear,omitempty"`
	ProfileComplete bool      `json:"isProfileComplete"`
	Placed          bool      `json:"isPlaced"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s *Student) AccountID() string         { return s.ID }
func (s *Student) AccountEmail() string      { return s.Email }
func (s *Student) AccountName() string       { return s.Name }
func (s *Student) AccountRole() Role         { return RoleStudent }
func (s *Student) Credentials() *Credentials { return &s.Creds }
func (s *Student) Touch(now time.Time)       { s.UpdatedAt = now }

func (s *Student) Public() interface{} { return s.View() }

// View returns the projection without credentials.
func (s *Student) View() StudentView {
	return StudentView{
		ID:              s.ID,
		Name:            s.Name,
		Email:           s.Email,
		Phone:           s.Phone,
		Gender:          s.Gender,
		Degree:          s.Degree,
		Branch:          s.Branch,
		RollNo:          s.RollNo,
		CGPI:            s.CGPI,
		TenthMarks:      s.TenthMarks,
		TwelfthMarks:    s.TwelfthMarks,
		GraduatingYear:  s.GraduatingYear,
		ProfileComplete: s.ProfileComplete,
		Placed:          s.Placed,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// HasCompleteProfile reports whether every field needed for job eligibility is set.
func (s *Student) HasCompleteProfile() bool {
	return s.Name != "" && s.RollNo != "" && s.Degree != "" && s.CGPI > 0 &&
		s.TenthMarks > 0 && s.TwelfthMarks > 0 && s.GraduatingYear > 0 &&
		s.Branch != "" && s.Phone != ""
}
