// Package features turns cleaned CVE frames into the numeric feature columns consumed by
// the preprocessor: per-category keyword scores, a CVSS keyword score, lexical statistics
// and vendor/product frequency encodings.
package features

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Vocabulary is the pattern configuration behind the keyword scores. It is plain data:
// load it once, compile it into a Scorer and inject the Scorer where it is needed.
type Vocabulary struct {
	Categories map[domain.AttackType][]string `yaml:"categories" json:"categories"`
	CVSS       []string                       `yaml:"cvss" json:"cvss"`
}

// LoadVocabulary reads a YAML vocabulary file. Categories missing from the file fall back
// to the built-in patterns; an empty cvss list does the same.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary decodes a YAML vocabulary document.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	for cat := range v.Categories {
		if !cat.IsValid() {
			return Vocabulary{}, fmt.Errorf("parse vocabulary: unknown category %q", cat)
		}
	}

	def := DefaultVocabulary()
	if v.Categories == nil {
		v.Categories = make(map[domain.AttackType][]string)
	}
	for _, cat := range domain.AttackTypes {
		if _, ok := v.Categories[cat]; !ok {
			v.Categories[cat] = def.Categories[cat]
		}
	}
	if len(v.CVSS) == 0 {
		v.CVSS = def.CVSS
	}
	return v, nil
}

// Compile builds a Scorer. Every pattern is matched case-insensitively.
func (v Vocabulary) Compile() (*Scorer, error) {
	s := &Scorer{
		vocab:      v,
		categories: make([][]*regexp.Regexp, len(domain.AttackTypes)),
	}
	for i, cat := range domain.AttackTypes {
		res, err := compileAll(v.Categories[cat])
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat, err)
		}
		s.categories[i] = res
	}
	res, err := compileAll(v.CVSS)
	if err != nil {
		return nil, fmt.Errorf("cvss patterns: %w", err)
	}
	s.cvss = res
	return s, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// DefaultVocabulary returns a fresh copy of the built-in pattern tables.
func DefaultVocabulary() Vocabulary {
	cats := make(map[domain.AttackType][]string, len(defaultCategories))
	for k, v := range defaultCategories {
		cats[k] = append([]string(nil), v...)
	}
	return Vocabulary{
		Categories: cats,
		CVSS:       append([]string(nil), defaultCVSS...),
	}
}

var defaultCategories = map[domain.AttackType][]string{
	domain.AttackXSS: {
		`<script\b`,
		`script\s*injection`,
		`javascript:`,
		`javascript\s*:`,
		`on\w+\s*=`,
		`dom[\s\-]*xss`,
		`html[\s\-]*injection`,
		`raw\s*html`,
		`innerhtml`,
		`outerhtml`,
		`cross[\s\-]*site scripting`,
		`xss\b`,
		`arbitrary\s*(script|javascript)`,
		`event\s*handler`,
		`unescaped\s*html`,
		`reflected\s*xss`,
		`stored\s*xss`,
		`persistent\s*xss`,
		`saniti[sz]ation\s*issue`,
	},
	domain.AttackSQLi: {
		`sql`,
		`sql[\s\-]*injection`,
		`injection`,
		`union\s+select`,
		`boolean\s*based`,
		`error\s*based`,
		`time[\s\-]*based`,
		`blind\s*sqli`,
		`unsanitized\s*input`,
		`raw\s*query`,
		`concatenated\s*sql`,
	},
	domain.AttackRCE: {
		`remote\s*code`,
		`command\s*execution`,
		`code\s*execution`,
		`execute\s*arbitrary`,
		`system\s*\(`,
		`os[\s\-]*command`,
		`deserialization\s*attack`,
		`unsafe\s*eval`,
		`dynamic\s*code`,
		`template\s*injection`,
	},
	domain.AttackDoS: {
		`denial\s*of\s*service`,
		`dos\b`,
		`crash`,
		`resource\s*exhaustion`,
		`infinite\s*loop`,
		`unbounded\s*memory`,
		`cpu\s*exhaustion`,
		`amplification\s*attack`,
	},
	domain.AttackCSRF: {
		`csrf`,
		`cross[\s\-]*site[\s\-]*request`,
		`forgery`,
		`missing\s*token`,
		`no\s*csrf`,
		`invalid\s*csrf`,
	},
	domain.AttackAuthBypass: {
		`auth\s*bypass`,
		`authentication\s*bypass`,
		`unauthorized`,
		`no\s*auth`,
		`missing\s*auth`,
		`weak\s*authentication`,
		`hardcoded\s*credentials`,
		`default\s*password`,
	},
	domain.AttackPrivEsc: {
		`privilege\s*escalation`,
		`elevate\s*privileges`,
		`admin\s*access`,
		`root\s*access`,
		`higher\s*privileges`,
		`insecure\s*permissions`,
	},
	domain.AttackPathTraversal: {
		`\.\./`,
		`path\s*traversal`,
		`directory\s*traversal`,
		`arbitrary\s*file\s*read`,
		`file\s*read\s*out\s*of\s*root`,
		`escape\s*directory`,
		`unsanitized\s*path`,
	},
	domain.AttackSSRF: {
		`ssrf`,
		`server\s*side\s*request`,
		`internal\s*request`,
		`metadata\s*service`,
		`localhost\s*access`,
		`internal\s*network`,
		`open\s*redirect\s*to\s*internal`,
	},
	domain.AttackInfoDisclosure: {
		`information\s*disclosure`,
		`leak`,
		`data\s*leak`,
		`sensitive\s*data`,
		`debug\s*information`,
		`stack\s*trace`,
		`exposes\s*internal`,
		`pii\s*exposed`,
	},
	domain.AttackOther: {
		`undefined\s*behavior`,
		`improper\s*validation`,
		`misconfiguration`,
		`unsafe\s*defaults`,
		`improper\s*handling`,
		`weak\s*security`,
		`logic\s*issue`,
	},
}

// Exploit-characteristic terms: vector, complexity, privileges, memory safety, impact.
var defaultCVSS = []string{
	`remote`,
	`local`,
	`network`,
	`adjacent`,
	`physical`,
	`low\s*complexity`,
	`high\s*complexity`,
	`privilege`,
	`privileges`,
	`elevated`,
	`admin`,
	`user\s*interaction`,
	`interaction\s*required`,
	`no\s*user\s*interaction`,
	`overflow`,
	`buffer`,
	`use\s*after\s*free`,
	`out\s*of\s*bounds`,
	`oob`,
	`null\s*dereference`,
	`race\s*condition`,
	`memory\s*corruption`,
	`double\s*free`,
	`heap`,
	`stack`,
	`rce`,
	`execute`,
	`arbitrary\s*code`,
	`command\s*execution`,
	`code\s*execution`,
	`execute\s*commands`,
	`bypass`,
	`authentication\s*bypass`,
	`authorization\s*bypass`,
	`denial`,
	`dos\b`,
	`crash`,
	`resource\s*exhaustion`,
	`confidentiality`,
	`integrity`,
	`availability`,
	`high\s*impact`,
	`low\s*impact`,
	`partial`,
	`complete`,
	`access\s*control`,
	`exposure`,
	`leak`,
	`information\s*disclosure`,
	`validation`,
	`sanitization`,
	`unsanitized`,
}
