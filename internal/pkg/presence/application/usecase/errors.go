package usecase

import "fmt"

// ErrPersistence indicates the online-set store failed inside a use case
var ErrPersistence = fmt.Errorf("presence use case persistence error")
