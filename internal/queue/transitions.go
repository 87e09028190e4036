package queue

import "shopqueue/queue-service/internal/models"

var transitionMap = map[string][]string{
	models.StatusWaiting:   {models.StatusConfirmed, models.StatusServing, models.StatusCancelled, models.StatusNoShow},
	models.StatusConfirmed: {models.StatusServing, models.StatusCancelled, models.StatusNoShow, models.StatusWaiting},
	models.StatusServing:   {models.StatusCompleted, models.StatusCancelled, models.StatusNoShow},
	models.StatusCompleted: {},
	models.StatusCancelled: {},
	models.StatusNoShow:    {},
}

func ValidTransition(fromStatus, toStatus string) bool {
	allowed, ok := transitionMap[fromStatus]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == toStatus {
			return true
		}
	}
	return false
}

func ValidStatus(status string) bool {
	if _, ok := transitionMap[status]; ok {
		return true
	}
	return false
}
