package storage

import (
	"sort"
	"time"

	"github.com/2beens/gymflow/internal/gymflow"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

func sortSetResults(results []*gymflow.SetResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ExerciseID != results[j].ExerciseID {
			return results[i].ExerciseID.String() < results[j].ExerciseID.String()
		}
		return results[i].SetNumber < results[j].SetNumber
	})
}
