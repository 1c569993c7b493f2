// Package voice runs single-result speech capture sessions.
//
// A Manager guards each session with three pieces of state: an active
// session flag that prevents overlapping captures, a result-handled flag
// that lets only the first final transcript through, and the reported
// State. The platform recognizer is abstracted behind Recognizer; its
// callbacks arrive through the Handle* methods. Transcripts are handed to a
// Dispatcher, which the Motor implements.
package voice
