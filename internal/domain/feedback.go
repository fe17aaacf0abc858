package domain

// Feedback is a "Moves, Adds & Changes" request from the public form.
type Feedback struct {
	CompanyName string      `json:"companyName"`
	Description string      `json:"description"`
	FirstName   string      `json:"firstName"`
	Email       string      `json:"email"`
	GoLiveDate  string      `json:"goLiveDate,omitempty"`
	Attachment  *Attachment `json:"-"`
}

// Attachment is a file sent along with an email.
type Attachment struct {
	Name    string
	Content []byte
}

// Email is an outbound transactional message. An empty sender falls back to
// the configured default.
type Email struct {
	FromName    string
	FromEmail   string
	ToName      string
	ToEmail     string
	Subject     string
	HTML        string
	Attachments []Attachment
}
