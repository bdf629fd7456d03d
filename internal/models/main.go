// Package models defines the core data structures for accounts, sessions,
// outlines, notes and quizzes.
package models

// Account represents a registered user.
type Account struct {
	// Email is the unique e-mail address of the account.
	Email string `json:"email"`
	// Username is the unique login name chosen by the user.
	Username string `json:"username"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
}

// Session is the server-side state attached to a browser cookie.
// It holds at most one active document: every upload overwrites
// UploadedFilePath and ImageFiles.
type Session struct {
	// Username of the logged-in user, empty when anonymous.
	Username string `json:"username,omitempty"`
	// Email of the logged-in user.
	Email string `json:"email,omitempty"`
	// UploadedFilePath is the staged PDF path relative to the upload root.
	UploadedFilePath string `json:"uploaded_file_path,omitempty"`
	// ImageFiles are the extracted image paths relative to the upload root.
	ImageFiles []string `json:"image_files,omitempty"`
}

// LoggedIn reports whether the session carries an authenticated identity.
func (s *Session) LoggedIn() bool {
	return s != nil && s.Username != ""
}

// Outline is the chapter → topic → subtopic structure of a document.
type Outline struct {
	Chapters []Chapter `json:"chapters"`
}

// Chapter groups the topics of one chapter.
type Chapter struct {
	Title  string  `json:"title"`
	Topics []Topic `json:"topics"`
}

// Topic is a single topic with its subtopics.
type Topic struct {
	Title     string   `json:"title"`
	Subtopics []string `json:"subtopics"`
}

// NoteImage references an extracted image and its caption.
type NoteImage struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption"`
}

// NoteResult is generated prose for a topic or subtopic plus the images
// that illustrate it.
type NoteResult struct {
	Notes  string      `json:"notes"`
	Images []NoteImage `json:"images"`
}

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer"`
}

// Quiz is a set of questions for a chapter.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}
