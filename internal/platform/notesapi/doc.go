// Package notesapi is the HTTP client for the study-notes API. It supplies the
// notes source (FetchNotes) and the topic-update sink (UpdateTopicStatus)
// consumed by the reading scheduler, plus the note edit and delete calls used
// by the CLI.
//
// The client tolerates both paginated (`{"results": [...], "next": ...}`) and
// bare-array list responses, and maps non-2xx responses to *APIError.
package notesapi
