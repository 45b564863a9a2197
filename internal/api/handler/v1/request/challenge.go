package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateChallengeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Points      int    `json:"points"`
}

func (req *CreateChallengeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 255)),
		validation.Field(&req.Description, validation.Required),
		validation.Field(&req.Type, validation.Required, validation.In("quiz", "task")),
		validation.Field(&req.Points, validation.Required, validation.Min(1), validation.Max(10000)),
	)
}

type SubmitChallengeRequest struct {
	Proof string `json:"proof"`
}

func (req *SubmitChallengeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Proof, validation.Required, validation.Length(1, 10000)),
	)
}
