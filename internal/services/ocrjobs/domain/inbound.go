package domain

// Inbound is one message from a chat transport, already stripped of transport types
type Inbound struct {
	RequesterID string
	// Command is the bare command name without the slash, empty for plain messages
	Command string
	Args    string
	Text    string
	File    *FileRef
}

// FileRef points at an upload still held by the transport
type FileRef struct {
	ID    string
	Name  string
	MIME  string
	Photo bool
}
