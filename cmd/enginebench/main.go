// enginebench drives the worker pool, move picker, and (optionally)
// the NNUE evaluator against one position, printing the total node
// count across all workers (per-worker counts are logged at debug
// level, below the Info level it sets). It exercises the library surface the way a real engine's
// UCI frontend would, without implementing UCI itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nwelch/rookcore/internal/bbcounter"
	"github.com/nwelch/rookcore/internal/board"
	"github.com/nwelch/rookcore/internal/history"
	"github.com/nwelch/rookcore/internal/movepick"
	"github.com/nwelch/rookcore/internal/nnue"
	"github.com/nwelch/rookcore/internal/threadpool"
)

var (
	fen      = flag.String("fen", board.StartFEN, "starting position")
	workers  = flag.Int("workers", 0, "worker count (0 = GOMAXPROCS)")
	duration = flag.Duration("time", time.Second, "search duration per run")
	nnuePath = flag.String("nnue", "", "path to NNUE weights; classical-only if empty")
)

// workerReport is the per-worker thread-data payload aggregated after
// a Go call, collected through internal/threadpool.ThreadData instead
// of a result channel.
type workerReport struct {
	nodes   uint64
	touched board.Bitboard
}

func main() {
	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	root, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Str("fen", *fen).Msg("enginebench: invalid FEN")
	}

	var net *nnue.Network
	if *nnuePath != "" {
		f, err := os.Open(*nnuePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *nnuePath).Msg("enginebench: could not open NNUE weights")
		}
		defer f.Close()
		net, err = nnue.Load(f)
		if err != nil {
			log.Fatal().Err(err).Msg("enginebench: could not load NNUE weights")
		}
		log.Info().Str("path", *nnuePath).Msg("enginebench: NNUE weights loaded")
	}

	pool := threadpool.New(*workers, func(ctx *threadpool.WorkerContext, params threadpool.GoParams, isMain bool) {
		report := runWorker(ctx, root, net, *duration, isMain)
		ctx.Data.Set(report)
	})
	defer pool.Quit()

	log.Info().Int("workers", pool.Size()).Msg("enginebench: pool started")

	var total uint64
	var touched board.Bitboard
	start := time.Now()
	pool.Go(threadpool.GoParams{
		MultiPV: 1,
		// Runs on worker 0 only, once every worker's slot holds its
		// final report — worker 0 stopping its own search is what
		// triggers this, no separate pool.Stop() call needed.
		ReportSink: func(data []*threadpool.ThreadData) {
			for i, d := range data {
				r, ok := d.Get().(workerReport)
				if !ok {
					continue
				}
				total += r.nodes
				touched |= r.touched
				log.Debug().Int("worker", i).Uint64("nodes", r.nodes).Msg("enginebench: worker finished")
			}
		},
	})
	elapsed := time.Since(start)

	fmt.Printf("nodes=%d elapsed=%s nps=%.0f squares_touched=%d\n",
		total, elapsed, float64(total)/elapsed.Seconds(), popcount(touched))
}

// runWorker plays the picker's first move at each ply down a single
// line, counting nodes until the pool's status flag is set, the time
// budget runs out, no move remains, or the ply cap is reached. Worker
// 0, the main searcher, additionally runs the NNUE forward pass when
// weights are loaded; helper workers never evaluate.
func runWorker(ctx *threadpool.WorkerContext, root *board.Position, net *nnue.Network, budget time.Duration, isMain bool) workerReport {
	pos := *root
	tabs := history.NewTables()
	tabs.Cont.SetPosition(&pos)

	var counter bbcounter.Counter
	deadline := time.Now().Add(budget)

	var nodes uint64
	var ply int
	for !ctx.Stopped() && time.Now().Before(deadline) {
		picker := movepick.NewMain(&pos, tabs, board.NoMove, ply == 0)
		m := picker.Next(false, ply)
		if m == board.NoMove {
			break
		}

		touched := board.Bitboard(1)<<uint(m.From()) | board.Bitboard(1)<<uint(m.To())
		counter.Add(touched)

		if isMain && net != nil {
			evaluatePosition(&pos, net)
		}

		piece := pos.MovedPiece(m)
		undo := pos.MakeMove(m)
		tabs.Cont.RecordMove(ply, piece, m.To())
		nodes++
		ply++
		if ply >= history.MaxPly {
			pos.UnmakeMove(m, undo)
			break
		}
	}

	return workerReport{nodes: nodes, touched: counter.Reduce()}
}

// evaluatePosition runs the forward pass with a zeroed accumulator
// pair. Feature-transformer population is an external collaborator's
// job; this only exercises the propagation math the way a caller who
// had populated accumulators would invoke it.
func evaluatePosition(pos *board.Position, net *nnue.Network) float32 {
	var pst, threat nnue.Accumulator
	stm := 0
	if pos.ToMove() == board.Black {
		stm = 1
	}
	bucketIndex := 0
	if bucketIndex >= len(net.Buckets) {
		bucketIndex = len(net.Buckets) - 1
	}
	return nnue.Evaluate(&pst, &threat, stm, bucketIndex, net)
}

func popcount(bb board.Bitboard) int {
	n := 0
	for bb != 0 {
		bb &= bb - 1
		n++
	}
	return n
}
