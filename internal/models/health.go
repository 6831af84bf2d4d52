package models

type Health struct {
	Status   string `json:"status"`
	Stops    int    `json:"stops"`
	Edges    int    `json:"edges"`
	Trips    int    `json:"trips"`
	Registry string `json:"registry"`
}
