package record

import "vaultkeeper/internal/domain/record"

// RecordBody carries the encrypted fields of a record. Absent and null
// fields are stored as NULL.
type RecordBody struct {
	NameEncrypted     *string `json:"name_encrypted" doc:"base64(nonce || ciphertext || tag)"`
	EmailEncrypted    *string `json:"email_encrypted,omitempty" nullable:"true"`
	PasswordEncrypted *string `json:"password_encrypted,omitempty" nullable:"true"`
	URLEncrypted      *string `json:"url_encrypted,omitempty" nullable:"true"`
	NotesEncrypted    *string `json:"notes_encrypted,omitempty" nullable:"true"`
}

func (b RecordBody) wire() record.WireRecord {
	return record.WireRecord{
		NameEncrypted:     b.NameEncrypted,
		EmailEncrypted:    b.EmailEncrypted,
		PasswordEncrypted: b.PasswordEncrypted,
		URLEncrypted:      b.URLEncrypted,
		NotesEncrypted:    b.NotesEncrypted,
	}
}

type idInput struct {
	ID int `path:"id" minimum:"1"`
}

type createInput struct {
	Body RecordBody
}

type updateInput struct {
	ID   int `path:"id" minimum:"1"`
	Body RecordBody
}

type listOutput struct {
	Body []record.WireRecord
}

type recordOutput struct {
	Body record.WireRecord
}
