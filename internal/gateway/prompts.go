package gateway

// SystemPrompt is installed as the model's system instruction.
const SystemPrompt = "You are a study assistant. You read the provided PDF document and produce structured study material from its content only. You must output your response as valid JSON matching the requested shape, with no text before or after it."

const topicsPrompt = `Analyze the provided PDF document and build its outline.

Return a JSON object of the form:
{
  "chapters": [
    {
      "title": "Chapter title",
      "topics": [
        {"title": "Topic title", "subtopics": ["Subtopic title", "..."]}
      ]
    }
  ]
}

Use the document's own chapter and section names. Every topic must have a "subtopics" array, which may be empty.`

const topicNotesPrompt = `Write detailed study notes for the topic %q of the chapter %q of the provided PDF document.

The following images were extracted from the document:
%s

Return a JSON object of the form:
{
  "notes": "Markdown study notes",
  "images": [{"filename": "one of the listed image paths", "caption": "what the image shows"}]
}

Only include images from the list above that illustrate this topic. Use the exact paths as given. If none apply, return an empty "images" array.`

const subtopicNotesPrompt = `Write detailed study notes for the subtopic %q of the topic %q in the chapter %q of the provided PDF document.

The following images were extracted from the document:
%s

Return a JSON object of the form:
{
  "notes": "Markdown study notes",
  "images": [{"filename": "one of the listed image paths", "caption": "what the image shows"}]
}

Only include images from the list above that illustrate this subtopic. Use the exact paths as given. If none apply, return an empty "images" array.`

const quizPrompt = `Write a multiple-choice quiz covering the chapter %q of the provided PDF document.

Return a JSON object of the form:
{
  "questions": [
    {"question": "Question text", "choices": ["A", "B", "C", "D"], "answer": "the correct choice, copied exactly"}
  ]
}

Write between 5 and 10 questions. Each question has exactly one correct answer that appears in its choices.`
