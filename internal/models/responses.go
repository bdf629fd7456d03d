package models

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse is returned by POST /upload_pdf/.
type UploadResponse struct {
	Message  string  `json:"message"`
	FileName string  `json:"file_name"`
	Topics   Outline `json:"topics"`
}

// SubtopicNotesResponse is returned by GET /api/notes/{chapter}/{topic}/{subtopic}.
type SubtopicNotesResponse struct {
	Notes     string      `json:"notes"`
	Images    []NoteImage `json:"images"`
	Username  string      `json:"username"`
	PDFFolder string      `json:"pdf_folder"`
}

// TopicNotesResponse is returned by GET /api/topic_notes/{chapter}/{topic}.
type TopicNotesResponse struct {
	TopicNotes string      `json:"topic_notes"`
	Images     []NoteImage `json:"images"`
	Username   string      `json:"username"`
	PDFFolder  string      `json:"pdf_folder"`
}

// QuizResponse is returned by GET /api/quiz/{chapter}.
type QuizResponse struct {
	Questions []QuizQuestion `json:"questions"`
}
