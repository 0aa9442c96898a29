// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bio-bed2seq/bed2seq"
)

var (
	genomePath = flag.String("genome", "", "Reference genome FASTA path (required). A .fai index side file is created next to it on first use")
	appendBP   = flag.Int("append", bed2seq.DefaultOpts.Append, "Widen every interval by this many bases on each side ('-append 20' appends 20 bp)")
	remove     = flag.Bool("remove", bed2seq.DefaultOpts.Remove, "Keep only the appended flanks and drop the interval interior; requires -append")
	noStrand   = flag.Bool("nostrand", bed2seq.DefaultOpts.NoStrand, "Do not reverse-complement minus-strand intervals")
	outPath    = flag.String("out", "", "Output FASTA path; defaults to <input>-bed2seq.fa in the current directory")
	wrapWidth  = flag.Int("wrap", bed2seq.DefaultOpts.WrapWidth, "FASTA sequence line width; 0 disables wrapping")
	version    = flag.Bool("version", false, "Print the version and exit")
)

func bed2seqUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bedpath\n", os.Args[0])
	fmt.Printf("Use \"-\" as bedpath to read the BED from stdin.\n")
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bed2seqUsage
	shutdown := grail.Init()
	defer shutdown()

	if *version {
		fmt.Printf("bio-bed2seq v%s\n", bed2seq.Version)
		return
	}
	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (bedpath) expected; please check flag syntax: '%s'",
			strings.Join(flag.Args(), " "))
	}
	if *genomePath == "" {
		log.Fatalf("-genome is required")
	}
	ctx := vcontext.Background()
	opts := bed2seq.Opts{
		Append:    *appendBP,
		Remove:    *remove,
		NoStrand:  *noStrand,
		Output:    *outPath,
		WrapWidth: *wrapWidth,
	}
	result, err := bed2seq.Run(ctx, flag.Arg(0), *genomePath, &opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	for _, w := range result.Warnings {
		log.Printf("warning: %s", w)
	}
	log.Printf("wrote %d record(s) to %s", result.NumRecords, result.Path)
}
