package health

type Input struct{}

type Output struct {
	Body Response
}

type Response struct {
	Status   string `json:"status" example:"OK"`
	Database string `json:"database" example:"OK" doc:"OK when a ping succeeded"`
}
