package phases

import (
	"regexp"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

// starAllelePattern pulls a star-allele number out of free phenotype text,
// e.g. "CYP2C19*17" or "*2".
var starAllelePattern = regexp.MustCompile(`\*(\d+[A-Z]?)`)

// alleleFunctionality is the closed, per-gene star-allele -> functional-class
// table (CPIC/PharmGKB standard), seeded with the minimal CYP2C19/CYP2D6 set
// and extensible by adding genes here.
var alleleFunctionality = map[string]map[string]domain.GeneFunction{
	"CYP2C19": {
		"*1":  domain.FunctionNormal,
		"*2":  domain.FunctionDecreased,
		"*3":  domain.FunctionDecreased,
		"*17": domain.FunctionIncreased,
	},
	"CYP2D6": {
		"*1":  domain.FunctionNormal,
		"*2":  domain.FunctionNormal,
		"*4":  domain.FunctionDecreased,
		"*10": domain.FunctionDecreased,
	},
}

// rsidToStarAllele is a simplified rsID -> star-allele lookup standing in
// for a full PharmGKB variant-to-haplotype mapping.
var rsidToStarAllele = map[string]map[string]string{
	"CYP2C19": {
		"rs4244285":  "*2",
		"rs4986893":  "*3",
		"rs12248560": "*17",
	},
	"CYP2D6": {
		"rs1065852": "*10",
		"rs3892097": "*4",
		"rs1135840": "*2",
	},
}

// DetermineMetabolizerPhenotype implements spec.md §4.4.1: maps up to two
// variants (a diplotype) to star alleles, looks up their functional class,
// and combines the pair into a CPIC-style metabolizer phenotype.
func DetermineMetabolizerPhenotype(geneSymbol string, variants []domain.Variant) domain.MetabolizerResult {
	if len(variants) == 0 {
		return domain.MetabolizerResult{
			Diplotype:     "Unknown/Unknown",
			Functionality: "Unknown/Unknown",
			Phenotype:     domain.IndeterminateMetabolizer,
		}
	}

	n := len(variants)
	if n > 2 {
		n = 2
	}
	alleles := make([]string, 0, 2)
	for i := 0; i < n; i++ {
		alleles = append(alleles, starAlleleFor(geneSymbol, variants[i]))
	}
	if len(alleles) == 1 {
		alleles = append(alleles, alleles[0])
	}

	diplotype := alleles[0] + "/" + alleles[1]
	func1 := functionalityFor(geneSymbol, alleles[0])
	func2 := functionalityFor(geneSymbol, alleles[1])
	functionality := func1.Label() + "/" + func2.Label()

	return domain.MetabolizerResult{
		Diplotype:     diplotype,
		Functionality: functionality,
		Phenotype:     phenotypeFromFunctionality(func1, func2),
	}
}

// starAlleleFor prefers a star allele mentioned directly in the variant's
// PharmGKB allele-phenotype text, then falls back to the rsID lookup table,
// then defaults to wild-type (*1).
func starAlleleFor(geneSymbol string, v domain.Variant) string {
	if v.PharmGKB != nil {
		for _, ann := range v.PharmGKB.Annotations {
			for _, ap := range ann.AllelePhenotypes {
				if match := starAllelePattern.FindStringSubmatch(ap.Allele + " " + ap.Phenotype); match != nil {
					return "*" + match[1]
				}
			}
		}
	}
	if v.RSID != "" {
		if known, ok := rsidToStarAllele[geneSymbol]; ok {
			if allele, ok := known[v.RSID]; ok {
				return allele
			}
		}
	}
	return "*1"
}

func functionalityFor(geneSymbol, allele string) domain.GeneFunction {
	genes, ok := alleleFunctionality[geneSymbol]
	if !ok {
		return domain.FunctionUnknown
	}
	f, ok := genes[allele]
	if !ok {
		return domain.FunctionUnknown
	}
	return f
}

// phenotypeFromFunctionality implements the §4.4.1 combination table exactly.
func phenotypeFromFunctionality(func1, func2 domain.GeneFunction) domain.MetabolizerPhenotype {
	if func1 == func2 {
		switch func1 {
		case domain.FunctionNormal:
			return domain.NormalMetabolizer
		case domain.FunctionDecreased, domain.FunctionNone:
			return domain.PoorMetabolizer
		case domain.FunctionIncreased:
			return domain.UltrarapidMetabolizer
		}
	}

	pair := []domain.GeneFunction{func1, func2}
	if contains(pair, domain.FunctionIncreased) {
		return domain.UltrarapidMetabolizer
	}
	if contains(pair, domain.FunctionDecreased) || contains(pair, domain.FunctionNone) {
		if contains(pair, domain.FunctionNormal) {
			return domain.IntermediateMetabolizer
		}
		return domain.PoorMetabolizer
	}
	if contains(pair, domain.FunctionNormal) {
		return domain.NormalMetabolizer
	}
	return domain.UnknownMetabolizer
}

func contains(fs []domain.GeneFunction, target domain.GeneFunction) bool {
	for _, f := range fs {
		if f == target {
			return true
		}
	}
	return false
}
