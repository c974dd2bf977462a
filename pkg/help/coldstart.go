package help

const ColdstartYAML = `# analysis-merger Quick Start

what_it_does: |
  Reads analysis documents (JSON objects produced by the text analyzer, one per
  input text) and writes a single merged document. List and table properties
  are unioned in first-seen order; numeric properties are averaged.

commands:
  basic_merge: |
    analysis-merger merge -f a.analysis.json -f b.analysis.json

  choose_properties: |
    analysis-merger merge -f "results/*.json" -p uniqueWords,meanWordSize -o merged

  include_top_results: |
    analysis-merger merge -f "results/*.json" -m topWords,topBigrams

  from_config: |
    analysis-merger merge --config merge.yaml --format yaml

  list_runs: |
    analysis-merger runs

  run_details: |
    analysis-merger run 5
    analysis-merger run --format json

config_file:
  sources: "Documents to read, relative to the config file"
  properties: "Property names to merge"
  top_methods: "Top-N result names merged after the properties"
  output: "Output file (.json appended when it has no extension)"

default_properties:
  - bigramFrequencies
  - trigramFrequencies
  - letterFrequencies
  - meanWordSize
  - medianWordSize
  - wordFrequencies
  - bigramPositions
  - trigramPositions
  - uniqueWords

merge_rules:
  - "Arrays contribute their elements; objects contribute their keys"
  - "Items are deduplicated; the first document that mentions an item fixes its position"
  - "A property with a number in any document becomes the mean of those numbers"
  - "A property missing from every document is written as []"
  - "Object keys that read as numbers are dropped from the output"

error_behavior:
  - "No sources or no properties: fails before reading anything"
  - "Unreadable or non-object source: logged, skipped, merge continues"
  - "Output write failure: logged, summary status 'failed', exit code 1"

key_files:
  - "merged.json (default output)"
  - "log.txt (structured JSON log, appended)"
  - "analysis-merger.db (run history, see 'runs')"
`
