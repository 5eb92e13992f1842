package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

func TestIsMongoDuplicateKeyError(t *testing.T) {
	assert.True(t, IsMongoDuplicateKeyError(duplicateKeyError()))
	assert.True(t, IsMongoDuplicateKeyError(mongo.CommandError{Code: 11000}))
	assert.False(t, IsMongoDuplicateKeyError(mongo.CommandError{Code: 112}))
	assert.False(t, IsMongoDuplicateKeyError(errors.New("some other error")))
	assert.False(t, IsMongoDuplicateKeyError(nil))
}

func TestWithRetriesSucceedsAfterDuplicate(t *testing.T) {
	attempts := 0
	err := WithRetries(func() error {
		attempts++
		if attempts < 3 {
			return duplicateKeyError()
		}
		return nil
	}, 3, IsMongoDuplicateKeyError)

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetriesGivesUpEventually(t *testing.T) {
	attempts := 0
	err := WithRetries(func() error {
		attempts++
		return duplicateKeyError()
	}, 2, IsMongoDuplicateKeyError)

	assert.Error(t, err)
	assert.Equal(t, 3, attempts) // Initial attempt plus two retries
}

func TestWithRetriesDoesNotRetryOtherErrors(t *testing.T) {
	attempts := 0
	boom := errors.New("network down")
	err := WithRetries(func() error {
		attempts++
		return boom
	}, 3, IsMongoDuplicateKeyError)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}
