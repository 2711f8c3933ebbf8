package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineStage(t *testing.T) {
	t.Run("nil channel", func(t *testing.T) {
		outValue := PipelineStage[int, string](t.Context(), nil, strconv.Itoa)
		done := PipelineEnd(outValue, func(string) {
			// this function should not be called
			t.Fail()
		})

		_, open := <-done
		assert.False(t, open)
	})

	t.Run("maps values through", func(t *testing.T) {
		in := make(chan int, 3)
		in <- 1
		in <- 2
		in <- 3
		close(in)

		out := PipelineStage[int, string](t.Context(), in, strconv.Itoa)
		var got []string
		for v := range out {
			got = append(got, v)
		}
		assert.Equal(t, []string{"1", "2", "3"}, got)
	})
}

func TestPipelineFanIn(t *testing.T) {
	a := make(chan int, 1)
	b := make(chan int, 1)
	a <- 1
	b <- 2
	close(a)
	close(b)

	out := PipelineFanIn(t.Context(), a, b)
	sum := 0
	for v := range out {
		sum += v
	}
	assert.Equal(t, 3, sum)
}

func TestPriorityQueue(t *testing.T) {
	high := make(chan int, 1)
	low := make(chan int, 1)
	high <- 1
	low <- 2
	close(high)
	close(low)

	out := PriorityQueue(high, low)
	var got []int
	for v := range out {
		got = append(got, v)
	}
	assert.ElementsMatch(t, []int{1, 2}, got)
}
