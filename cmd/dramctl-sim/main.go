// cmd/dramctl-sim drives the controller core from a JSON config file and a
// line-oriented scenario file, logging every committed command. Grounded on
// the teacher's cmd/boardtest/main.go shape (a single flat main(), a small
// logging wrapper, no framework) generalized with the flag package the way
// other example repos in the pack use it for CLI entry points, since this
// domain has no bus/device model to drive the simulation the teacher's way.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"dramctl/internal/arbiter"
	"dramctl/internal/config"
	"dramctl/internal/controller"
	"dramctl/internal/des"
	"dramctl/internal/errcode"
	"dramctl/internal/memspec"
	"dramctl/internal/obs"
	"dramctl/internal/scenario"
	"dramctl/internal/types"
)

func main() {
	configPath := flag.String("config", "", "path to the controller/memspec/address-map JSON configuration")
	scenarioPath := flag.String("scenario", "", "path to the R/W/WAIT scenario script")
	flag.Parse()

	log := obs.NewLogger(os.Stderr)

	if *configPath == "" || *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: dramctl-sim -config <file> -scenario <file>")
		os.Exit(2)
	}

	cf, err := os.Open(*configPath)
	if err != nil {
		errcode.Fatal(log, "dramctl-sim", errcode.Wrap("main", errcode.BadConfig, err))
	}
	doc, err := config.Load(cf)
	cf.Close()
	if err != nil {
		errcode.Fatal(log, "dramctl-sim", err)
	}

	spec, err := doc.BuildMemSpec()
	if err != nil {
		errcode.Fatal(log, "dramctl-sim", err)
	}
	decoder, err := doc.BuildDecoder(spec)
	if err != nil {
		errcode.Fatal(log, "dramctl-sim", err)
	}
	policy, err := doc.BuildPolicy()
	if err != nil {
		errcode.Fatal(log, "dramctl-sim", err)
	}

	sf, err := os.Open(*scenarioPath)
	if err != nil {
		errcode.Fatal(log, "dramctl-sim", errcode.Wrap("main", errcode.BadConfig, err))
	}
	sc, err := readScenario(sf)
	sf.Close()
	if err != nil {
		errcode.Fatal(log, "dramctl-sim", err)
	}

	clock := des.NewClock()
	numChannels := spec.Geometry.Channels
	if numChannels < 1 {
		numChannels = 1
	}

	rec := scenario.NewRecorder(clock)
	ctrls := make([]*controller.Controller, numChannels)
	a := arbiter.New(clock, decoder, ctrls, arbiter.Hooks{})
	a.SetHooks(arbiter.Hooks{
		SendBeginResp: func(thread types.Thread, txn *types.Transaction) {
			a.OnEndRespFromInitiator(thread)
		},
	})

	for ch := 0; ch < numChannels; ch++ {
		hooks := a.ChannelHooks(types.Channel(ch))
		hooks.SendDownstream = rec.Sink(types.Channel(ch))
		ctrls[ch] = controller.New(controller.Config{
			Clock:  clock,
			Spec:   spec,
			Policy: policy,
			Hooks:  hooks,
			Log:    obs.NewChannelLogger(os.Stderr, ch),
		})
		a.SetChannel(types.Channel(ch), ctrls[ch])
	}

	pool := types.NewPool()
	scenario.Run(sc, clock, a, pool)

	for _, ev := range rec.Events {
		log.Info().
			Int64("tick", int64(ev.Tick)).
			Int("channel", int(ev.Channel)).
			Str("cmd", ev.Cmd.String()).
			Int("bank", int(ev.Bank)).
			Int64("row", int64(ev.Row)).
			Msg("command")
	}

	elapsedNS := uint64(clock.Now()) * memspec.TickPeriodNS(doc.Sim.ClockHz)
	log.Info().
		Int64("ticks", int64(clock.Now())).
		Uint64("elapsed_ns", elapsedNS).
		Str("name", doc.Sim.SimulationName).
		Msg("run complete")
}

func readScenario(r *os.File) (*scenario.Scenario, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errcode.Wrap("readScenario", errcode.BadConfig, err)
	}
	return scenario.Parse(string(buf))
}
