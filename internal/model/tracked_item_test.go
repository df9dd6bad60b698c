package model

import "testing"

func TestBucketIDRoundTrip(t *testing.T) {
	for priority := 1; priority <= 5; priority++ {
		for consumer := 0; consumer < 10; consumer++ {
			bucket := BucketID(priority, consumer)
			if BucketPriority(bucket) != priority {
				t.Errorf("BucketPriority(%d) = %d, want %d", bucket, BucketPriority(bucket), priority)
			}
			if BucketConsumer(bucket) != consumer {
				t.Errorf("BucketConsumer(%d) = %d, want %d", bucket, BucketConsumer(bucket), consumer)
			}
		}
	}
}

func TestBucketIDsUnique(t *testing.T) {
	seen := make(map[int]bool)
	for priority := 1; priority <= 5; priority++ {
		for consumer := 0; consumer < 100; consumer++ {
			bucket := BucketID(priority, consumer)
			if seen[bucket] {
				t.Fatalf("duplicate bucket id %d", bucket)
			}
			seen[bucket] = true
		}
	}
}
