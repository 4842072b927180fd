package record

import "time"

// Credential is a decrypted vault entry. Every text field is secret.
type Credential struct {
	ID         int
	OwnerID    int
	Name       string
	Email      string
	Password   string
	URL        string
	Notes      string
	ModifiedAt time.Time
}

// WireRecord is what the server stores and returns. A nil field was never set.
type WireRecord struct {
	ID                int       `json:"id"`
	OwnerID           int       `json:"owner_id"`
	NameEncrypted     *string   `json:"name_encrypted"`
	EmailEncrypted    *string   `json:"email_encrypted"`
	PasswordEncrypted *string   `json:"password_encrypted"`
	URLEncrypted      *string   `json:"url_encrypted"`
	NotesEncrypted    *string   `json:"notes_encrypted"`
	ModifiedAt        time.Time `json:"modified_at"`
}

// Field ties a bare credential field to its encrypted wire column.
type Field struct {
	Bare  string
	Wire  string
	plain func(*Credential) *string
	enc   func(*WireRecord) **string
}

// Fields is shared by client and server and must not change order or names.
var Fields = [...]Field{
	{
		Bare:  "name",
		Wire:  "name_encrypted",
		plain: func(c *Credential) *string { return &c.Name },
		enc:   func(w *WireRecord) **string { return &w.NameEncrypted },
	},
	{
		Bare:  "email",
		Wire:  "email_encrypted",
		plain: func(c *Credential) *string { return &c.Email },
		enc:   func(w *WireRecord) **string { return &w.EmailEncrypted },
	},
	{
		Bare:  "password",
		Wire:  "password_encrypted",
		plain: func(c *Credential) *string { return &c.Password },
		enc:   func(w *WireRecord) **string { return &w.PasswordEncrypted },
	},
	{
		Bare:  "url",
		Wire:  "url_encrypted",
		plain: func(c *Credential) *string { return &c.URL },
		enc:   func(w *WireRecord) **string { return &w.URLEncrypted },
	},
	{
		Bare:  "notes",
		Wire:  "notes_encrypted",
		plain: func(c *Credential) *string { return &c.Notes },
		enc:   func(w *WireRecord) **string { return &w.NotesEncrypted },
	},
}

func FieldByBare(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Bare == name {
			return f, true
		}
	}
	return Field{}, false
}

func FieldByWire(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Wire == name {
			return f, true
		}
	}
	return Field{}, false
}

// Plain returns a pointer to the field inside c.
func (f Field) Plain(c *Credential) *string { return f.plain(c) }

// Encrypted returns a pointer to the field inside w.
func (f Field) Encrypted(w *WireRecord) **string { return f.enc(w) }
