package produce

import "github.com/redis/go-redis/v9"

type Produce struct {
	ProgressService *ProgressService
}

var produceInstance *Produce

func InitProduce(client *redis.Client) *Produce {
	if produceInstance != nil {
		return produceInstance
	}

	progressService := InitProgressService(client)
	if progressService == nil {
		panic("Failed to initialize Progress service")
	}

	produceInstance = &Produce{
		ProgressService: progressService,
	}

	return produceInstance
}

func GetProduce() *Produce {
	if produceInstance == nil {
		panic("Produce not initialized. Call InitProduce() first.")
	}
	return produceInstance
}
