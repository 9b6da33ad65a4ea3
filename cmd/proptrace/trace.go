package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/saiko-tech/vrad-staticprops/pkg/lighttrace"
	"github.com/saiko-tech/vrad-staticprops/pkg/staticprops"
)

type segment struct {
	start, end mgl32.Vec3
}

// readRays parses one segment per line. Blank lines and lines starting with # are skipped.
func readRays(r io.Reader) ([]segment, error) {
	rows, err := readVectors(r, 6)
	if err != nil {
		return nil, err
	}

	rays := make([]segment, 0, len(rows))
	for _, v := range rows {
		rays = append(rays, segment{
			start: mgl32.Vec3{v[0], v[1], v[2]},
			end:   mgl32.Vec3{v[3], v[4], v[5]},
		})
	}

	return rays, nil
}

// readSamples parses one point per line.
func readSamples(r io.Reader) ([]mgl32.Vec3, error) {
	rows, err := readVectors(r, 3)
	if err != nil {
		return nil, err
	}

	samples := make([]mgl32.Vec3, 0, len(rows))
	for _, v := range rows {
		samples = append(samples, mgl32.Vec3{v[0], v[1], v[2]})
	}

	return samples, nil
}

// lightRays builds a segment from every light to every sample, light major.
func lightRays(lights, samples []mgl32.Vec3) []segment {
	rays := make([]segment, 0, len(lights)*len(samples))

	for _, l := range lights {
		for _, s := range samples {
			rays = append(rays, segment{start: l, end: s})
		}
	}

	return rays
}

func readVectors(r io.Reader, n int) ([][]float32, error) {
	var rows [][]float32

	scanner := bufio.NewScanner(r)

	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != n {
			return nil, errors.Errorf("line %d: want %d coordinates, got %d", line, n, len(fields))
		}

		v := make([]float32, n)

		for i, field := range fields {
			f, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}

			v[i] = float32(f)
		}

		rows = append(rows, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read input")
	}

	return rows, nil
}

// traceAll traces rays on workers goroutines, each with its own ray test state.
func traceAll(tracer *lighttrace.Tracer, rays []segment, workers int) []lighttrace.Result {
	if workers < 1 {
		workers = 1
	}

	results := make([]lighttrace.Result, len(rays))
	jobs := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			var state staticprops.RayTest
			defer state.Close()

			for i := range jobs {
				results[i] = tracer.TraceRay(&state, rays[i].start, rays[i].end)
			}
		}()
	}

	for i := range rays {
		jobs <- i
	}

	close(jobs)
	wg.Wait()

	return results
}

func writeResults(w io.Writer, results []lighttrace.Result) error {
	bw := bufio.NewWriter(w)

	for i, res := range results {
		var err error

		switch {
		case res.Fraction >= 1:
			_, err = fmt.Fprintf(bw, "%d visible\n", i)
		case res.HitProp():
			_, err = fmt.Fprintf(bw, "%d prop %d %.4f %.2f %.2f %.2f\n", i, res.Prop, res.Fraction,
				res.EndPos[0], res.EndPos[1], res.EndPos[2])
		default:
			_, err = fmt.Fprintf(bw, "%d world %.4f %.2f %.2f %.2f\n", i, res.Fraction,
				res.EndPos[0], res.EndPos[1], res.EndPos[2])
		}

		if err != nil {
			return err
		}
	}

	return bw.Flush()
}
