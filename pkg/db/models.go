package db

// Card queues, as in Anki. Only cards in a queue above QueueNew count as studied.
const (
	QueueSuspended = -1
	QueueNew       = 0
	QueueLearning  = 1
	QueueReview    = 2
)

// Note is a corpus note: a set of named fields belonging to a model.
type Note struct {
	ID        int64
	GUID      string
	ModelID   int64
	Fields    map[string]string
	Source    string
	CreatedAt int64
}

// StudiedNote is a note together with the moment it was first studied.
// DeckID and DeckName are those of the card whose review came first.
type StudiedNote struct {
	NoteID       int64
	ModelID      int64
	ModelName    string
	DeckID       int64
	DeckName     string
	Fields       map[string]string
	FirstStudyMs int64
}

// DeckModel lists the field names seen on notes of one model within one deck.
type DeckModel struct {
	DeckName  string
	ModelName string
	Fields    []string
}
