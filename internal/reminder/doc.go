// Package reminder turns a spoken meeting date and time into the pair of
// reminders the skill books: ten minutes and one minute before the meeting.
//
// Schedule is pure. The caller supplies "now", the device location and the
// two slots, and receives the requests to create plus the confirmation text.
// Creating the reminders is the caller's job.
package reminder
