/*

Concord matches observed thermonuclear X-ray burst light curves
against simulated burst models, sampling the posterior of distance,
inclination, redshift and per-epoch time shifts with MCMC.

The basic usage looks like this:

	concord runspec.yaml

, this will sample with the Metropolis-Hastings sampler.

You can change the method:

	concord -method lbfgsb runspec.yaml

The above will maximize the likelihood with LBFGS-B instead.

To see all the options run:

	concord -h

*/
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"github.com/khaled-space/concord-khldl/checkpoint"
	"github.com/khaled-space/concord-khldl/fit"
	"github.com/khaled-space/concord-khldl/optimize"
	"github.com/khaled-space/concord-khldl/runspec"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("concord")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("concord", "X-ray burst light-curve matcher and sampler").Version(version)

	// input
	runSpecFileName = app.Arg("runspec", "YAML run specification").Required().ExistingFile()

	// optimizer parameters
	randomize = app.Flag("randomize", "use uniformly distributed random starting point; "+
		"by default the starting point comes from the run spec").Bool()
	iterations = app.Flag("iter", "number of iterations").Default("10000").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()
	method     = app.Flag("method", "method to use "+
		"(mh: Metropolis-Hastings, "+
		"annealing: simulated annealing, "+
		"lbfgsb: limited-memory Broyden–Fletcher–Goldfarb–Shanno with bounding constraints, "+
		"none: just compute likelihood"+
		")").Default("mh").Enum("mh", "annealing", "lbfgsb", "none")

	// mcmc parameters
	accept = app.Flag("accept", "report acceptance rate every N iterations").Default("200").Int()
	burn   = app.Flag("burn", "number of iterations to discard for posterior statistics (20% by default)").Default("-1").Int()

	// adaptive mcmc parameters
	adaptive = app.Flag("adaptive", "use adaptive MCMC").Bool()
	skip     = app.Flag("skip", "number of iterations to skip for adaptive mcmc (5% by default)").Default("-1").Int()
	maxAdapt = app.Flag("maxadapt", "stop adapting after iteration (20% by default)").Default("-1").Int()

	// checkpointing
	checkpointFileName = app.Flag("checkpoint", "checkpoint database filename").String()
	checkpointSeconds  = app.Flag("cperiod", "checkpoint period in seconds").Default("30").Float64()

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	outF     = app.Flag("out", "write sampling trajectory to a file").String()
	startF   = app.Flag("start", "read start position from the trajectory or JSON file").ExistingFile()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// lastLine returns the last line of a file content.
func lastLine(fn string) (line string, err error) {
	f, err := os.Open(fn)
	if err != nil {
		return line, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line = scanner.Text()
	}
	err = scanner.Err()
	return line, err
}

// getOptimizerFromString returns an optimizer from a string.
func getOptimizerFromString(method string, accept, annealingSkip int) (optimize.Optimizer, error) {
	switch method {
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "mh":
		chain := optimize.NewMH(false, 0)
		chain.AccPeriod = accept
		return chain, nil
	case "annealing":
		chain := optimize.NewMH(true, annealingSkip)
		chain.AccPeriod = accept
		return chain, nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("unknown method: %s", method)
}

// isSampling returns true for the methods whose trajectory is a
// posterior chain.
func isSampling(method string) bool {
	return method == "mh" || method == "annealing"
}

// setStart reads the start position from a trajectory or JSON file.
func setStart(f *fit.Fit, startFileName string) {
	par := f.GetFloatParameters()
	l, err := lastLine(startFileName)
	if err == nil {
		err = par.ReadLine(l)
	}
	if err != nil {
		log.Debug("Reading start file as JSON")
		data, err2 := os.ReadFile(startFileName)
		if err2 == nil {
			err2 = json.Unmarshal(data, &par)
		}
		// startFileName is neither trajectory nor correct JSON
		if err2 != nil {
			log.Error("Error reading start position from JSON:", err2)
			log.Fatal("Error reading start position from trajectory file:", err)
		}
	}
	if !par.InRange() {
		log.Fatal("Initial parameters are not in the range")
	}
}

func run(spec *runspec.RunSpec) (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{Source: spec.Source}

	f, err := loadFit(spec)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Loaded %d epoch(s) from run spec (source %s)", f.NEpochs(), spec.Source)

	if *startF != "" {
		setStart(f, *startF)
	} else if *randomize {
		log.Info("Using uniform (in the boundaries) random starting point")
		par := f.GetFloatParameters()
		par.Randomize()
	}

	// iteration to skip before annealing, for adaptive mcmc
	annealingSkip := 0
	if *adaptive {
		as := optimize.NewAdaptiveSettings()
		if *skip < 0 {
			*skip = *iterations / 20
		}
		if *maxAdapt < 0 {
			*maxAdapt = *iterations / 5
		}
		annealingSkip = *maxAdapt
		log.Infof("Setting adaptive parameters, skip=%v, maxAdapt=%v", *skip, *maxAdapt)
		as.Skip = *skip
		as.MaxAdapt = *maxAdapt
		f.SetAdaptive(as)
	}

	log.Infof("Fit has %d parameters.", len(f.GetFloatParameters()))

	out := os.Stdout
	if *outF != "" {
		out, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer out.Close()
	}

	opt, err := getOptimizerFromString(*method, *accept, annealingSkip)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Using %s method.", *method)

	opt.SetTrajectoryOutput(out)
	opt.SetOptimizable(f)
	opt.SetReportPeriod(*report)
	opt.WatchSignals(os.Interrupt, syscall.SIGTERM)

	if *checkpointFileName != "" {
		db, err := bolt.Open(*checkpointFileName, 0644, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint database:", err)
		}
		defer db.Close()
		store := checkpoint.NewStore(db, spec.Source, *checkpointSeconds)
		state, err := store.Load()
		if err != nil {
			log.Fatal("Error loading checkpoint:", err)
		}
		if state != nil && !state.Final {
			log.Noticef("Resuming from checkpoint at iteration %d", state.Iter)
			par := f.GetFloatParameters()
			par.SetFromMap(state.Parameters)
			if !par.InRange() {
				log.Fatal("Checkpoint parameters are not in the range")
			}
		}
		opt.SetCheckpoint(store)
	}

	var samples *optimize.Samples
	if isSampling(*method) {
		if *burn < 0 {
			*burn = *iterations / 5
		}
		samples = optimize.NewSamples(f.GetFloatParameters().Names(nil), *burn)
		opt.SetSampleRecorder(samples)
	}

	opt.Run(*iterations)
	summary.Optimizer = opt.Summary()
	opt.PrintResults()

	if max := opt.GetMaxLParameters(); max != nil {
		summary.Breakdown = f.Breakdown(max)
		f.LogBreakdown(max)
	}
	summary.Posterior, summary.Covariance = posteriorSummary(samples)
	for _, p := range summary.Posterior {
		if p.Interval.Bounded {
			log.Noticef("%s = %g (%g .. %g)", p.Name, p.Mean, p.Interval.Low, p.Interval.High)
		} else {
			log.Noticef("%s = %g (unconstrained)", p.Name, p.Mean)
		}
	}

	endTime := time.Now()

	deltaT := endTime.Sub(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "concord")
	logging.SetLevel(level, "optimize")
	logging.SetLevel(level, "checkpoint")
	logging.SetLevel(level, "fit")
	logging.SetLevel(level, "burst")
	logging.SetLevel(level, "anisotropy")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	rand.Seed(*seed)
	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.\n", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	spec, err := runspec.Load(*runSpecFileName)
	if err != nil {
		log.Fatal(err)
	}

	summary := run(spec)
	summary.NThreads = effectiveNThreads
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
