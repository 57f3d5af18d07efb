package serviceclient

import "fmt"

// ServiceError is a reply with a status other than 200.
type ServiceError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *ServiceError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}
