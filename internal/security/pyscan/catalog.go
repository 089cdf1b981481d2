package pyscan

import (
	"sort"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

// Rule families.
const (
	FamilyExec    = "execution-bypass"
	FamilyEnv     = "environment-mutation"
	FamilyProcess = "process-spawning"
	FamilyFile    = "file-operations"
	FamilyPersist = "persistence"
	FamilyThread  = "unsafe-concurrency"
	FamilyPickle  = "unsafe-deserialization"
)

func astRule(id, family string, level finding.RiskLevel, desc, suggestion string) finding.Rule {
	return finding.Rule{
		ID:          id,
		Layer:       finding.LayerAST,
		Family:      family,
		Level:       level,
		Description: desc,
		Suggestion:  suggestion,
	}
}

const (
	execSuggestion = "Remove dynamic code execution; write the logic directly as code."
	envSuggestion  = "Do not modify the process environment; pass values as function arguments or use a local dict."
)

var (
	ruleExecDirect    = astRule("EXEC001", FamilyExec, finding.LevelCritical, "Direct call to a dynamic code execution builtin", execSuggestion)
	ruleExecAttribute = astRule("EXEC002", FamilyExec, finding.LevelCritical, "Dynamic code execution through the builtins namespace", execSuggestion)
	ruleExecSubscript = astRule("EXEC003", FamilyExec, finding.LevelCritical, "Dynamic code execution through a builtins subscript", execSuggestion)
	ruleExecGetattr   = astRule("EXEC004", FamilyExec, finding.LevelCritical, "Dynamic code execution builtin fetched with getattr", execSuggestion)
	ruleExecNamespace = astRule("EXEC005", FamilyExec, finding.LevelCritical, "Dynamic code execution through globals()/locals() lookup", execSuggestion)

	ruleEnvAssign = astRule("ENV001", FamilyEnv, finding.LevelCritical, "Assignment to os.environ", envSuggestion)
	ruleEnvDelete = astRule("ENV002", FamilyEnv, finding.LevelCritical, "Deletion from os.environ", envSuggestion)
	ruleEnvMethod = astRule("ENV003", FamilyEnv, finding.LevelCritical, "Mutating method call on os.environ", envSuggestion)
	ruleEnvPutenv = astRule("ENV004", FamilyEnv, finding.LevelCritical, "Call to os.putenv/os.unsetenv", envSuggestion)

	ruleProcOS         = astRule("PROC001", FamilyProcess, finding.LevelCritical, "Process spawn through the os module", "Do not start external processes; use the provided Python APIs instead.")
	ruleProcShell      = astRule("PROC002", FamilyProcess, finding.LevelCritical, "Subprocess started through a shell", "Never run commands through a shell; drop shell=True and avoid subprocesses entirely.")
	ruleProcSubprocess = astRule("PROC003", FamilyProcess, finding.LevelHigh, "Subprocess call requires review", "Avoid subprocesses; if one is unavoidable, request human review with an explicit argument list.")
	ruleProcImport     = astRule("PROC004", FamilyProcess, finding.LevelMedium, "Import of the subprocess module", "Remove the import unless a subprocess is genuinely required.")

	ruleFileRmtree    = astRule("FILE001", FamilyFile, finding.LevelCritical, "Recursive directory deletion with shutil.rmtree", "Do not delete directory trees; remove individual files you created yourself.")
	ruleFileCopy      = astRule("FILE002", FamilyFile, finding.LevelHigh, "Copy or move into a protected path", "Write outputs under the working directory, never into system or home configuration paths.")
	ruleFileOpen      = astRule("FILE003", FamilyFile, finding.LevelCritical, "open() for writing on a protected path", "Write outputs under the working directory, never into system or home configuration paths.")
	ruleFilePathWrite = astRule("FILE004", FamilyFile, finding.LevelCritical, "Path write on a protected path", "Write outputs under the working directory, never into system or home configuration paths.")
	ruleFileDelete    = astRule("FILE005", FamilyFile, finding.LevelMedium, "File or directory deletion", "Make sure the deleted path is one the code created itself.")
	ruleFilePerms     = astRule("FILE006", FamilyFile, finding.LevelHigh, "Permission or ownership change on a protected path", "Do not change permissions or ownership of system or home configuration paths.")

	rulePersist = astRule("PERSIST001", FamilyPersist, finding.LevelCritical, "Process call invoking a task scheduler", "Do not install scheduled tasks or services.")

	ruleThreadThread   = astRule("THREAD001", FamilyThread, finding.LevelCritical, "threading.Thread instantiation", "Background threads break the host UI's single-thread model; run the work synchronously.")
	ruleThreadTimer    = astRule("THREAD002", FamilyThread, finding.LevelCritical, "threading.Timer instantiation", "Timers run on background threads; schedule work through the host instead.")
	ruleThreadPool     = astRule("THREAD003", FamilyThread, finding.LevelCritical, "ThreadPoolExecutor instantiation", "Thread pools break the host UI's single-thread model; run the work synchronously.")
	ruleThreadMPPool   = astRule("THREAD004", FamilyThread, finding.LevelCritical, "multiprocessing ThreadPool instantiation", "Thread pools break the host UI's single-thread model; run the work synchronously.")
	ruleThreadLowLevel = astRule("THREAD005", FamilyThread, finding.LevelCritical, "Low-level thread start", "Background threads break the host UI's single-thread model; run the work synchronously.")
	ruleThreadImport   = astRule("THREAD006", FamilyThread, finding.LevelHigh, "Import of a threading module", "Remove the import; background threads are not supported in this host.")
	ruleThreadFrom     = astRule("THREAD007", FamilyThread, finding.LevelHigh, "Import of a thread class", "Remove the import; background threads are not supported in this host.")
	ruleThreadSubclass = astRule("THREAD008", FamilyThread, finding.LevelCritical, "Class derived from a thread class", "Background threads break the host UI's single-thread model; run the work synchronously.")

	rulePickleLoad = astRule("PICKLE001", FamilyPickle, finding.LevelCritical, "Unsafe deserialization with a pickle-family loader", "Load data with json or another format that cannot execute code.")
	ruleYAMLLoad   = astRule("PICKLE002", FamilyPickle, finding.LevelHigh, "yaml.load without a safe loader", "Use yaml.safe_load or pass Loader=yaml.SafeLoader.")
)

var astRules = []finding.Rule{
	ruleExecDirect, ruleExecAttribute, ruleExecSubscript, ruleExecGetattr, ruleExecNamespace,
	ruleEnvAssign, ruleEnvDelete, ruleEnvMethod, ruleEnvPutenv,
	ruleProcOS, ruleProcShell, ruleProcSubprocess, ruleProcImport,
	ruleFileRmtree, ruleFileCopy, ruleFileOpen, ruleFilePathWrite, ruleFileDelete, ruleFilePerms,
	rulePersist,
	ruleThreadThread, ruleThreadTimer, ruleThreadPool, ruleThreadMPPool, ruleThreadLowLevel,
	ruleThreadImport, ruleThreadFrom, ruleThreadSubclass,
	rulePickleLoad, ruleYAMLLoad,
}

// Rules returns the AST-layer catalog, ordered by rule ID.
func Rules() []finding.Rule {
	rules := append([]finding.Rule(nil), astRules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}
