package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TestPayloadKey holds a test with its questions and answer key.
func (r *CacheKeyStruct) TestPayloadKey(testID string) string {
	return fmt.Sprintf("test:%s:payload", testID)
}

// ResultKey holds the latest result record of a user for a test.
func (r *CacheKeyStruct) ResultKey(userID int, testID string) string {
	return fmt.Sprintf("user:%d:test:%s:result", userID, testID)
}

var CacheKey = NewCacheKeyStruct()
