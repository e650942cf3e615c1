package experiment

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{"Benchmark", "stlim", "ns", "nb", "nr", "af", "sdf", "ai", "sdi"}

// WriteCSV writes one row per summary under the header
// Benchmark,stlim,ns,nb,nr,af,sdf,ai,sdi.
func WriteCSV(w io.Writer, summaries []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		row := []string{
			s.Name,
			strconv.Itoa(s.Params.StagnationLimit),
			strconv.Itoa(s.Params.Scouts),
			strconv.Itoa(s.Params.BestSites),
			strconv.Itoa(s.Params.Recruiters),
			formatFloat(s.AvgFitness),
			formatFloat(s.SdFitness),
			formatFloat(s.AvgIterations),
			formatFloat(s.SdIterations),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
