package admin

import "vaultkeeper/internal/domain/transfer"

type setupInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" maxLength:"64"`
		Password string `json:"password" minLength:"1" maxLength:"1024"`
	}
}

type setupOutput struct {
	Body struct {
		ID int `json:"user_id"`
	}
}

type exportOutput struct {
	Body transfer.Document
}

type importInput struct {
	Truncate bool `query:"truncate" doc:"Remove every existing user and record first"`
	Body     transfer.Document
}

type importOutput struct {
	Body transfer.Stats
}
