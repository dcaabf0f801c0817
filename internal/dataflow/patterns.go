package dataflow

import "regexp"

// PatternTableVersion identifies the revision of the built-in pattern tables.
// Bump it whenever an entry is added, removed or changed.
const PatternTableVersion = 3

// pattern is one line-level idiom.
type pattern struct {
	re   *regexp.Regexp
	desc string
	// rejectNext discards a match immediately followed by this text.
	rejectNext string
}

// patternGroup is an ordered list of idioms sharing a category.
type patternGroup struct {
	category string
	patterns []pattern
}

// nilPattern flags idioms that may yield an absent value.
type nilPattern struct {
	pattern
	reason string
}

// sanitizer is a case-insensitive idiom recognized in a sink's line.
type sanitizer struct {
	expr string
	re   *regexp.Regexp
}

// patternTable holds every table for one analyzed language.
type patternTable struct {
	sources    []patternGroup
	sinks      []patternGroup
	nils       []nilPattern
	sanitizers map[string][]sanitizer // sink type -> ordered sanitizers
}

func p(expr, desc string) pattern {
	return pattern{re: regexp.MustCompile(expr), desc: desc}
}

func group(category string, patterns ...pattern) patternGroup {
	return patternGroup{category: category, patterns: patterns}
}

func nilp(expr, desc, reason string) nilPattern {
	return nilPattern{pattern: p(expr, desc), reason: reason}
}

func sanitizers(exprs ...string) []sanitizer {
	result := make([]sanitizer, 0, len(exprs))
	for _, expr := range exprs {
		result = append(result, sanitizer{expr: expr, re: regexp.MustCompile(`(?i)` + expr)})
	}
	return result
}

// Python: Flask, Django, FastAPI.
var pythonTable = &patternTable{
	sources: []patternGroup{
		group(SourceHTTPBody,
			p(`request\.get_json\s*\(\s*\)`, "request.get_json()"),
			p(`request\.json\b`, "request.json"),
			p(`request\.data\b`, "request.data"),
			p(`request\.form\b`, "request.form"),
			p(`request\.POST\b`, "request.POST"),
			p(`await\s+request\.json\s*\(\s*\)`, "await request.json()"),
			p(`await\s+request\.body\s*\(\s*\)`, "await request.body()"),
		),
		group(SourceHTTPQuery,
			p(`request\.args\.get\s*\(`, "request.args.get"),
			p(`request\.GET\.get\s*\(`, "request.GET.get"),
			p(`request\.GET\[`, "request.GET[]"),
			p(`request\.query_params\.get\s*\(`, "request.query_params.get"),
			p(`Query\s*\(`, "Query()"),
		),
		group(SourceHTTPHeader,
			p(`request\.headers\.get\s*\(`, "request.headers.get"),
			p(`request\.headers\[`, "request.headers[]"),
			p(`request\.META\.get\s*\(`, "request.META.get"),
			p(`Header\s*\(`, "Header()"),
		),
		group(SourceHTTPPath,
			p(`@app\.route\s*\([^)]*<([^>]+)>`, "route_param"),
			p(`@router\.(get|post|put|delete|patch)\s*\([^)]*\{([^}]+)\}`, "path_param"),
			p(`Path\s*\(`, "Path()"),
		),
		group(SourceEnvVar,
			p(`os\.getenv\s*\(`, "os.getenv"),
			p(`os\.environ\.get\s*\(`, "os.environ.get"),
			p(`os\.environ\[`, "os.environ[]"),
			p(`environ\.get\s*\(`, "environ.get"),
		),
		group(SourceFileRead,
			p(`open\s*\([^)]*\)\.read\s*\(`, "open().read()"),
			p(`\.read_text\s*\(\s*\)`, ".read_text()"),
			p(`\.read_bytes\s*\(\s*\)`, ".read_bytes()"),
			p(`Path\s*\([^)]*\)\.read`, "Path().read"),
			p(`with\s+open\s*\(`, "with open()"),
		),
		group(SourceDatabase,
			p(`\.execute\s*\(`, ".execute()"),
			p(`\.fetchone\s*\(\s*\)`, ".fetchone()"),
			p(`\.fetchall\s*\(\s*\)`, ".fetchall()"),
			p(`\.fetchmany\s*\(`, ".fetchmany()"),
			p(`cursor\.`, "cursor operation"),
			p(`\.objects\.raw\s*\(`, ".objects.raw()"),
			p(`\.objects\.get\s*\(`, ".objects.get()"),
			p(`\.objects\.filter\s*\(`, ".objects.filter()"),
		),
		group(SourceExternalAPI,
			p(`requests\.get\s*\(`, "requests.get"),
			p(`requests\.post\s*\(`, "requests.post"),
			p(`requests\.put\s*\(`, "requests.put"),
			p(`requests\.delete\s*\(`, "requests.delete"),
			p(`requests\.patch\s*\(`, "requests.patch"),
			p(`httpx\.(get|post|put|delete|patch)\s*\(`, "httpx request"),
			p(`aiohttp\.ClientSession\s*\(`, "aiohttp session"),
			p(`await\s+session\.(get|post|put|delete|patch)\s*\(`, "aiohttp request"),
			p(`urllib\.request\.urlopen\s*\(`, "urllib.request.urlopen"),
		),
	},
	sinks: []patternGroup{
		group(SinkDatabase,
			p(`cursor\.execute\s*\([^)]*%`, "cursor.execute with % formatting"),
			p(`cursor\.execute\s*\([^)]*\.format\s*\(`, "cursor.execute with .format()"),
			p(`cursor\.execute\s*\(\s*f["']`, "cursor.execute with f-string"),
			p(`\.raw\s*\(`, ".raw() query"),
			p(`\.extra\s*\(`, ".extra() query"),
			p(`connection\.execute\s*\(`, "connection.execute"),
			p(`RawSQL\s*\(`, "RawSQL()"),
		),
		group(SinkCommandExec,
			p(`subprocess\.run\s*\(`, "subprocess.run"),
			p(`subprocess\.call\s*\(`, "subprocess.call"),
			p(`subprocess\.Popen\s*\(`, "subprocess.Popen"),
			p(`os\.system\s*\(`, "os.system"),
			p(`os\.popen\s*\(`, "os.popen"),
			p(`os\.exec[lv]p?e?\s*\(`, "os.exec*"),
			p(`\beval\s*\(`, "eval()"),
			p(`\bexec\s*\(`, "exec()"),
			p(`compile\s*\(`, "compile()"),
			p(`__import__\s*\(`, "__import__()"),
		),
		group(SinkHTTPResponse,
			p(`jsonify\s*\(`, "jsonify()"),
			p(`make_response\s*\(`, "make_response()"),
			p(`render_template\s*\(`, "render_template()"),
			p(`HttpResponse\s*\(`, "HttpResponse()"),
			p(`JsonResponse\s*\(`, "JsonResponse()"),
			p(`Response\s*\(`, "Response()"),
			p(`return\s+\{`, "return dict"),
		),
		group(SinkLogging,
			p(`logging\.(debug|info|warning|error|critical)\s*\(`, "logging.*()"),
			p(`logger\.(debug|info|warning|error|critical)\s*\(`, "logger.*()"),
			p(`\bprint\s*\(`, "print()"),
		),
		group(SinkFileWrite,
			p(`open\s*\([^)]*["'][wa][+]?["']`, "open() write mode"),
			p(`\.write\s*\(`, ".write()"),
			p(`\.write_text\s*\(`, ".write_text()"),
			p(`\.write_bytes\s*\(`, ".write_bytes()"),
			p(`shutil\.copy`, "shutil.copy"),
			p(`shutil\.move`, "shutil.move"),
		),
		group(SinkTemplate,
			p(`render_template\s*\(`, "render_template()"),
			p(`render_template_string\s*\(`, "render_template_string()"),
			p(`Template\s*\(`, "Template()"),
			p(`Environment\s*\(`, "Jinja2 Environment()"),
			p(`Markup\s*\(`, "Markup()"),
		),
		group(SinkRedirect,
			p(`redirect\s*\(`, "redirect()"),
			p(`HttpResponseRedirect\s*\(`, "HttpResponseRedirect()"),
			p(`RedirectResponse\s*\(`, "RedirectResponse()"),
		),
	},
	nils: []nilPattern{
		nilp(`\.get\s*\(\s*[^,()]+\s*\)`, ".get() without default", "map_lookup"),
		nilp(`\.fetchone\s*\(\s*\)`, ".fetchone()", "database_query"),
		nilp(`\.first\s*\(\s*\)`, ".first()", "database_query"),
		nilp(`\.objects\.filter\s*\([^)]*\)\.first\s*\(`, ".objects.filter().first()", "database_query"),
		nilp(`json\.loads?\s*\(`, "json.loads()", "json_parse"),
		nilp(`yaml\.(safe_)?load\s*\(`, "yaml.load()", "yaml_parse"),
		nilp(`re\.(match|search|fullmatch)\s*\(`, "re.match()", "regex_match"),
		nilp(`getattr\s*\(\s*[^,()]+,\s*[^,()]+\)`, "getattr() without default", "attribute_lookup"),
	},
	sanitizers: map[string][]sanitizer{
		SinkDatabase:     sanitizers(`execute\s*\([^,]+,\s*[\[\(]`, `\?\s*,`, `%s`),
		SinkCommandExec:  sanitizers(`shlex\.quote`, `subprocess\.\w+\([^)]*shell\s*=\s*False`),
		SinkHTTPResponse: sanitizers(`escape`, `html\.escape`, `markupsafe`, `bleach`),
		SinkTemplate:     sanitizers(`autoescape\s*=\s*True`),
		SinkRedirect:     sanitizers(`url_for\s*\(`, `is_safe_url\s*\(`),
	},
}

// TypeScript: Express, Node, Koa, Deno, Bun.
var typescriptTable = &patternTable{
	sources: []patternGroup{
		group(SourceHTTPBody,
			p(`req\.body\b`, "req.body"),
			p(`request\.body\b`, "request.body"),
			p(`ctx\.request\.body\b`, "ctx.request.body"),
			p(`ctx\.body\b`, "ctx.body"),
			p(`event\.body\b`, "event.body"),
			p(`\.json\s*\(\s*\)`, ".json()"),
		),
		group(SourceHTTPQuery,
			p(`req\.query\b`, "req.query"),
			p(`req\.params\b`, "req.params"),
			p(`request\.query\b`, "request.query"),
			p(`ctx\.query\b`, "ctx.query"),
			p(`ctx\.params\b`, "ctx.params"),
			p(`searchParams\.get\s*\(`, "searchParams.get"),
			p(`URLSearchParams\s*\(`, "URLSearchParams"),
			p(`url\.searchParams\b`, "url.searchParams"),
		),
		group(SourceHTTPHeader,
			p(`req\.headers\b`, "req.headers"),
			p(`request\.headers\b`, "request.headers"),
			p(`ctx\.headers\b`, "ctx.headers"),
			p(`ctx\.request\.headers\b`, "ctx.request.headers"),
			p(`headers\.get\s*\(`, "headers.get"),
		),
		group(SourceEnvVar,
			p(`process\.env\b`, "process.env"),
			p(`Deno\.env\.get\s*\(`, "Deno.env.get"),
			p(`Bun\.env\b`, "Bun.env"),
		),
		group(SourceFileRead,
			p(`fs\.readFile\s*\(`, "fs.readFile"),
			p(`fs\.readFileSync\s*\(`, "fs.readFileSync"),
			p(`readFile\s*\(`, "readFile"),
			p(`readFileSync\s*\(`, "readFileSync"),
			p(`Deno\.readTextFile\s*\(`, "Deno.readTextFile"),
			p(`Bun\.file\s*\(`, "Bun.file"),
		),
		group(SourceDatabase,
			p(`\.query\s*\(`, ".query()"),
			p(`\.findOne\s*\(`, ".findOne()"),
			p(`\.find\s*\(`, ".find()"),
			p(`\.findFirst\s*\(`, ".findFirst()"),
			p(`\.findUnique\s*\(`, ".findUnique()"),
			p(`\.findMany\s*\(`, ".findMany()"),
			p(`\.aggregate\s*\(`, ".aggregate()"),
			p(`\.select\s*\(`, ".select()"),
			p(`prisma\.\w+\.`, "prisma query"),
			p(`db\.\w+\.`, "db query"),
		),
		group(SourceExternalAPI,
			p(`\bfetch\s*\(`, "fetch()"),
			p(`axios\.(get|post|put|delete|patch)\s*\(`, "axios request"),
			p(`axios\s*\(`, "axios()"),
			p(`got\s*\(`, "got()"),
			p(`got\.(get|post|put|delete|patch)\s*\(`, "got request"),
			p(`http\.request\s*\(`, "http.request"),
			p(`https\.request\s*\(`, "https.request"),
		),
	},
	sinks: []patternGroup{
		group(SinkDatabase,
			p("\\.query\\s*\\(\\s*`", ".query() with template literal"),
			p(`\.query\s*\(\s*["'][^"']*\$\{`, ".query() with interpolation"),
			p(`\.exec\s*\(`, ".exec()"),
			p(`\.raw\s*\(`, ".raw()"),
			p("\\$queryRaw\\s*`", "$queryRaw template"),
			p("\\$executeRaw\\s*`", "$executeRaw template"),
			p(`\.rawQuery\s*\(`, ".rawQuery()"),
		),
		group(SinkCommandExec,
			p(`\bexec\s*\(`, "exec()"),
			p(`\bexecSync\s*\(`, "execSync()"),
			p(`\bspawn\s*\(`, "spawn()"),
			p(`\bspawnSync\s*\(`, "spawnSync()"),
			p(`\beval\s*\(`, "eval()"),
			p(`new\s+Function\s*\(`, "new Function()"),
			p(`vm\.runInContext\s*\(`, "vm.runInContext"),
			p(`vm\.runInNewContext\s*\(`, "vm.runInNewContext"),
			p(`vm\.Script\s*\(`, "vm.Script"),
			p(`child_process\.`, "child_process"),
		),
		group(SinkHTTPResponse,
			p(`res\.send\s*\(`, "res.send()"),
			p(`res\.json\s*\(`, "res.json()"),
			p(`res\.write\s*\(`, "res.write()"),
			p(`res\.end\s*\(`, "res.end()"),
			p(`ctx\.body\s*=`, "ctx.body ="),
			p(`response\.send\s*\(`, "response.send()"),
			p(`response\.json\s*\(`, "response.json()"),
			p(`return\s+Response\s*\(`, "return Response()"),
			p(`new\s+Response\s*\(`, "new Response()"),
		),
		group(SinkLogging,
			p(`console\.(log|warn|error|info|debug)\s*\(`, "console.*()"),
			p(`logger\.(log|warn|error|info|debug)\s*\(`, "logger.*()"),
			p(`winston\.(log|warn|error|info|debug)\s*\(`, "winston.*()"),
			p(`pino\.(log|warn|error|info|debug)\s*\(`, "pino.*()"),
		),
		group(SinkFileWrite,
			p(`fs\.writeFile\s*\(`, "fs.writeFile"),
			p(`fs\.writeFileSync\s*\(`, "fs.writeFileSync"),
			p(`writeFile\s*\(`, "writeFile"),
			p(`writeFileSync\s*\(`, "writeFileSync"),
			p(`fs\.appendFile\s*\(`, "fs.appendFile"),
			p(`Deno\.writeTextFile\s*\(`, "Deno.writeTextFile"),
			p(`Bun\.write\s*\(`, "Bun.write"),
		),
		group(SinkTemplate,
			p(`\.render\s*\(`, ".render()"),
			p(`dangerouslySetInnerHTML\s*=`, "dangerouslySetInnerHTML"),
			p(`\.innerHTML\s*=`, ".innerHTML ="),
			p(`\.outerHTML\s*=`, ".outerHTML ="),
			p(`document\.write\s*\(`, "document.write"),
			p(`insertAdjacentHTML\s*\(`, "insertAdjacentHTML"),
		),
		group(SinkRedirect,
			p(`res\.redirect\s*\(`, "res.redirect()"),
			p(`response\.redirect\s*\(`, "response.redirect()"),
			p(`ctx\.redirect\s*\(`, "ctx.redirect()"),
			p(`window\.location\s*=`, "window.location ="),
			p(`location\.href\s*=`, "location.href ="),
			p(`location\.assign\s*\(`, "location.assign()"),
			p(`location\.replace\s*\(`, "location.replace()"),
		),
	},
	nils: []nilPattern{
		nilp(`\.findOne\s*\(`, ".findOne()", "database_query"),
		nilp(`\.findFirst\s*\(`, ".findFirst()", "database_query"),
		nilp(`\.findUnique\s*\(`, ".findUnique()", "database_query"),
		{pattern: pattern{re: regexp.MustCompile(`\.get\s*\([^)]*\)`), desc: ".get() without assertion", rejectNext: "!"}, reason: "map_lookup"},
		nilp(`Map\.prototype\.get\s*\(`, "Map.get()", "map_lookup"),
		nilp(`\.get\s*<`, "Map.get<>()", "map_lookup"),
		nilp(`JSON\.parse\s*\(`, "JSON.parse()", "json_parse"),
		nilp(`JSON\.parseAsync\s*\(`, "JSON.parseAsync()", "json_parse"),
		nilp(`\?\.`, "optional chaining", "optional_chain"),
		nilp(`\?\?\s*`, "nullish coalescing", "nullish_coalesce"),
		nilp(`\bas\s+\w+(?:\s*\|\s*null)?`, "type assertion", "type_assertion"),
		nilp(`<\w+>`, "type cast", "type_cast"),
		nilp(`!\s*[;,\)]`, "non-null assertion", "non_null_assertion"),
		nilp(`await\s+\w+\.catch\s*\(`, "caught promise", "promise_catch"),
	},
	sanitizers: map[string][]sanitizer{
		SinkDatabase:     sanitizers(`\$\d+`, `\?`, `prepare\(`),
		SinkCommandExec:  sanitizers(`shell:\s*false`),
		SinkHTTPResponse: sanitizers(`escapeHtml`, `sanitize`, `DOMPurify`, `xss`),
		SinkTemplate:     sanitizers(`textContent`, `createTextNode`),
		SinkRedirect:     sanitizers(`encodeURIComponent\s*\(`, `isSafeUrl\s*\(`),
	},
}
