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

/*
Given a BED file of genomic intervals and a reference genome FASTA,
bio-bed2seq extracts the bases covered by each interval and writes them as a
FASTA file, one record per BED row, in input order.  This command is similar
to "bedtools getfasta".

The reference is accessed through a faidx (.fai) index side file, which is
created next to the genome on first use.  Six-column BEDs are strand-aware:
minus-strand intervals are reverse-complemented unless -nostrand is given.
Intervals can be widened with -append, and -remove keeps only the two
appended flanks, which is useful for pulling the context around a feature
rather than the feature itself.

Sample usage:
bio-bed2seq \
    -genome ref.fa \
    -append 20 \
    -out peaks.fa \
    peaks.bed
*/
package main
