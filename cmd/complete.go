package cmd

import (
	"flag"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors complete the values of flags sharing a name across subcommands.
func flagPredictors() map[string]complete.Predictor {
	return map[string]complete.Predictor{
		"method":    predict.Set{"fifo", "avg"},
		"residency": predict.Set(tradebook.Residencies()),
		"tolerance": predict.Set{"conservative", "moderate", "aggressive"},
		"period":    predict.Set{"day", "week", "month", "quarter", "year"},
		"store":     predict.Set{"memory", "file", "sqlite", "dynamo"},
		"o":         predict.Files("*.json"),
	}
}

// argPredictors complete the positional arguments of some subcommands, report files by default.
func argPredictors() map[string]complete.Predictor {
	topics, _ := docs.GetAllTopics()
	return map[string]complete.Predictor{
		"topic":   predict.Set(topics),
		"rates":   predict.Nothing,
		"prices":  predict.Something,
		"prefs":   predict.Nothing,
		"history": predict.Nothing,
		"serve":   predict.Nothing,
	}
}

// Completion returns the shell completion of the commands registered in c.
func Completion(c *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	known := flagPredictors()
	args := argPredictors()
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagsOf(global, known),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, sc subcommands.Command) {
		fs := flag.NewFlagSet(sc.Name(), flag.ContinueOnError)
		sc.SetFlags(fs)
		sub := &complete.Command{
			Flags: flagsOf(fs, known),
			Args:  predict.Files("*.csv"),
		}
		if p, ok := args[sc.Name()]; ok {
			sub.Args = p
		}
		root.Sub[sc.Name()] = sub
	})
	return root
}

func flagsOf(fs *flag.FlagSet, known map[string]complete.Predictor) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := known[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}
