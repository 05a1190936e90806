package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamListKey returns the cache key holding the JSON-encoded exam schedule
func (r *CacheKeyStruct) ExamListKey() string {
	return "exams:json"
}

// RegistrationKey returns the hash key for a candidate's registration record
func (r *CacheKeyStruct) RegistrationKey(registrationNumber string) string {
	return fmt.Sprintf("registration:%s", registrationNumber)
}

// RegistrationUsedField is the hash field set once a registration starts its exam
func (r *CacheKeyStruct) RegistrationUsedField() string {
	return "used_at"
}

var CacheKey = NewCacheKeyStruct()
