package examauth

import "encoding/json"

// mirrorEntry is the persisted primary-directory record: the security mirror
// held for every account. Field names match the legacy user_db.json layout so
// existing data files load unchanged.
type mirrorEntry struct {
	// Password holds an Argon2id PHC string, or a legacy plaintext credential
	// imported from an old data file (upgraded on the next successful login).
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Attempts int    `json:"attempts"`
	Blocked  bool   `json:"blocked"`
	Name     string `json:"name,omitempty"`
}

// roleRecord is the persisted lecturer / exam-personnel record. Its Password
// and Role duplicate the mirror's and are kept equal after every mutation of
// the identity protocol; Profile is owned here and nowhere else.
type roleRecord struct {
	Password string  `json:"password"`
	Role     Role    `json:"role"`
	Profile  Profile `json:"profile"`
}

func decodeMirror(raw json.RawMessage) (mirrorEntry, error) {
	var m mirrorEntry
	err := json.Unmarshal(raw, &m)
	return m, err
}

func encodeMirror(m mirrorEntry) json.RawMessage {
	data, _ := json.Marshal(m)
	return data
}

func decodeRoleRecord(raw json.RawMessage) (roleRecord, error) {
	var r roleRecord
	err := json.Unmarshal(raw, &r)
	return r, err
}

func encodeRoleRecord(r roleRecord) json.RawMessage {
	data, _ := json.Marshal(r)
	return data
}

// displayName picks the human label for a mirror entry the way the original
// did: explicit name, else the username itself.
func displayName(name, username string) string {
	if name != "" {
		return name
	}
	return username
}
