package upload

import (
	"time"

	"github.com/google/uuid"
)

// Upload is one ingested customer file kept around so the client can
// re-apply or inspect it later. Row payloads are stored with the record but
// listed without them.
type Upload struct {
	ID         uuid.UUID
	ClientID   uuid.UUID
	FileName   string
	RowCount   int
	UploadedAt time.Time
}
