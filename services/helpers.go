package services

import "fmt"

// eventRoom names the websocket room all engine events of one event go to.
func eventRoom(eventID int) string {
	return fmt.Sprintf("event_%d", eventID)
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func intPtr(v int) *int {
	return &v
}
