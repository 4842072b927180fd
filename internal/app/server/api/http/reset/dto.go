package reset

type requestInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" maxLength:"64"`
	}
}

type redeemInput struct {
	Body struct {
		Token       string `json:"token" minLength:"1" maxLength:"256"`
		NewPassword string `json:"new_password" minLength:"1" maxLength:"1024"`
	}
}

type statusOutput struct {
	Body StatusResponse
}

type StatusResponse struct {
	Status string `json:"status"`
}
