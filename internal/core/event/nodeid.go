package event

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// GenerateNodeID returns the deterministic blob store key for an event
// body: hex(md5("<project_id>:<event_id>")). (project_id, event_id) is
// globally unique, so the key is reproducible from the two identifiers
// alone and no secondary index is needed. The ingestion write path stores
// payloads under this same key.
func GenerateNodeID(projectID int64, eventID string) string {
	h := md5.New()
	h.Write([]byte(strconv.FormatInt(projectID, 10)))
	h.Write([]byte(":"))
	h.Write([]byte(eventID))
	return hex.EncodeToString(h.Sum(nil))
}
