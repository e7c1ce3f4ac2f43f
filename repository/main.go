package repository

import (
	"github.com/tnqbao/gau-3d-forge/infra"
)

type Repository struct {
	JobRepo *JobRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra, queueName string, retentionHours int) *Repository {
	repository = &Repository{
		JobRepo: NewJobRepository(infra.Redis.Client, queueName, retentionHours),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}
