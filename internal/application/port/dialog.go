package port

// Dialog presents modal questions to the user. Confirm must not block the
// UI loop: answer is invoked on the UI loop once the user decides.
type Dialog interface {
	Confirm(question string, answer func(yes bool))
}
