package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractSrc(t *testing.T, src string) *FileResult {
	t.Helper()
	res, err := NewHeuristic().Extract("src/input.ts", []byte(src))
	require.NoError(t, err)
	return res
}

func findSymbol(res *FileResult, name, kind string) *Symbol {
	for i := range res.Symbols {
		if res.Symbols[i].Name == name && res.Symbols[i].Kind == kind {
			return &res.Symbols[i]
		}
	}
	return nil
}

func hasCandidate(res *FileResult, source, target, verb string) bool {
	for _, c := range res.Candidates {
		if c.SourceName == source && c.TargetName == target && c.Verb == verb {
			return true
		}
	}
	return false
}

func TestExtractClass(t *testing.T) {
	res := extractSrc(t, `export class UserService {
  private cache: Map<string, string>;

  constructor(private repo: UserRepository) {}

  findUser(id: string): User {
    return this.repo.find(id);
  }
}
`)

	sym := findSymbol(res, "UserService", KindClass)
	require.NotNil(t, sym)
	assert.Equal(t, 1, sym.StartLine)
	assert.Equal(t, 9, sym.EndLine)
	assert.Equal(t, "class UserService", sym.Description)
	assert.Equal(t, "true", sym.Metadata["exported"])

	assert.True(t, hasCandidate(res, "UserService", "UserRepository", VerbUses))
	assert.True(t, hasCandidate(res, "UserService", "User", VerbUses))
	// Map is denylisted, never a candidate.
	assert.False(t, hasCandidate(res, "UserService", "Map", VerbUses))
}

func TestExtractHeritage(t *testing.T) {
	res := extractSrc(t, `class AdminService extends BaseService implements Auditable, Disposable {
}

interface Auditable extends Trackable {
}
`)

	assert.True(t, hasCandidate(res, "AdminService", "BaseService", VerbExtends))
	assert.True(t, hasCandidate(res, "AdminService", "Auditable", VerbImplements))
	assert.True(t, hasCandidate(res, "AdminService", "Disposable", VerbImplements))
	assert.True(t, hasCandidate(res, "Auditable", "Trackable", VerbExtends))
	// extends target must not leak into implements.
	assert.False(t, hasCandidate(res, "AdminService", "BaseService", VerbImplements))
}

func TestExtractMultilineHeader(t *testing.T) {
	res := extractSrc(t, `export class ReportGenerator
  extends AbstractGenerator
  implements Printable
{
}
`)

	sym := findSymbol(res, "ReportGenerator", KindClass)
	require.NotNil(t, sym)
	assert.True(t, hasCandidate(res, "ReportGenerator", "AbstractGenerator", VerbExtends))
	assert.True(t, hasCandidate(res, "ReportGenerator", "Printable", VerbImplements))
}

func TestExtractFunctions(t *testing.T) {
	res := extractSrc(t, `export function processOrder(order: Order): Receipt {
  return charge(order);
}

export async function fetchAll() {
  return [];
}

const formatDate = (d: Date): string => d.toISOString();

export const handler = async (event) => {
  return respond(event);
};
`)

	require.NotNil(t, findSymbol(res, "processOrder", KindFunction))
	require.NotNil(t, findSymbol(res, "fetchAll", KindFunction))
	require.NotNil(t, findSymbol(res, "formatDate", KindFunction))
	handler := findSymbol(res, "handler", KindFunction)
	require.NotNil(t, handler)
	assert.Equal(t, "true", handler.Metadata["exported"])

	fd := findSymbol(res, "formatDate", KindFunction)
	require.NotNil(t, fd)
	assert.Empty(t, fd.Metadata)
}

func TestExtractEnumTypeVariable(t *testing.T) {
	res := extractSrc(t, `export enum Color {
  Red,
  Green,
}

export type UserID = string;

const MAX_RETRIES = 3;
`)

	e := findSymbol(res, "Color", KindEnum)
	require.NotNil(t, e)
	assert.Equal(t, 1, e.StartLine)
	assert.Equal(t, 4, e.EndLine)

	require.NotNil(t, findSymbol(res, "UserID", KindTypeAlias))
	require.NotNil(t, findSymbol(res, "MAX_RETRIES", KindVariable))
}

func TestExtractDecoratorArrays(t *testing.T) {
	res := extractSrc(t, `@Module({
  imports: [ConfigModule],
  providers: [UserService, AuthService],
  controllers: [UserController],
})
export class AppModule {}
`)

	require.NotNil(t, findSymbol(res, "AppModule", KindClass))
	assert.True(t, hasCandidate(res, "AppModule", "ConfigModule", VerbUses))
	assert.True(t, hasCandidate(res, "AppModule", "UserService", VerbUses))
	assert.True(t, hasCandidate(res, "AppModule", "AuthService", VerbUses))
	assert.True(t, hasCandidate(res, "AppModule", "UserController", VerbUses))
}

func TestExtractSkipsNestedDeclarations(t *testing.T) {
	res := extractSrc(t, `function outer() {
  function inner() {}
  class Hidden {}
}
`)

	require.NotNil(t, findSymbol(res, "outer", KindFunction))
	assert.Nil(t, findSymbol(res, "inner", KindFunction))
	assert.Nil(t, findSymbol(res, "Hidden", KindClass))
}

func TestExtractIgnoresCommentsAndStrings(t *testing.T) {
	res := extractSrc(t, `// class NotReal {}
/*
class AlsoNotReal {}
*/
const s = "class StringClass {}";
class Real {}
`)

	assert.Nil(t, findSymbol(res, "NotReal", KindClass))
	assert.Nil(t, findSymbol(res, "AlsoNotReal", KindClass))
	assert.Nil(t, findSymbol(res, "StringClass", KindClass))
	require.NotNil(t, findSymbol(res, "Real", KindClass))
}

func TestExtractMalformedInputFailsSoft(t *testing.T) {
	res := extractSrc(t, `class Broken {
  method( {
// never closed
`)

	// One symbol, span clamped to the file; no panic, no error.
	sym := findSymbol(res, "Broken", KindClass)
	require.NotNil(t, sym)
	assert.LessOrEqual(t, sym.EndLine, 4)
}

func TestExtractEmptyFile(t *testing.T) {
	res := extractSrc(t, "")
	assert.Empty(t, res.Symbols)
	assert.Empty(t, res.Candidates)
}

func TestExtractDeterministic(t *testing.T) {
	src := `import { B } from './b';
export class A extends B {
  constructor(private dep: Service) {}
}
`
	first := extractSrc(t, src)
	second := extractSrc(t, src)
	assert.Equal(t, first, second)
}

func TestExtractDeduplicatesCandidates(t *testing.T) {
	res := extractSrc(t, `class Api {
  constructor(private client: HttpClient) {}

  get(url: string): HttpClient {
    return this.client;
  }
}
`)

	count := 0
	for _, c := range res.Candidates {
		if c.SourceName == "Api" && c.TargetName == "HttpClient" && c.Verb == VerbUses {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractFilePseudoSymbolOnlyWithImports(t *testing.T) {
	noImports := extractSrc(t, `export class Standalone {}
`)
	assert.Nil(t, findSymbol(noImports, "src/input.ts", KindFile))
	assert.Len(t, noImports.Symbols, 1)

	withImports := extractSrc(t, `import { Dep } from './dep';

export class Consumer {}
`)
	fileSym := findSymbol(withImports, "src/input.ts", KindFile)
	require.NotNil(t, fileSym)
	assert.Equal(t, 1, fileSym.StartLine)
	assert.True(t, hasCandidate(withImports, "src/input.ts", "Dep", VerbImports))
}

func TestTypeNamesDenylist(t *testing.T) {
	names := typeNames("Promise<Map<string, UserDTO>> | null")
	assert.Equal(t, []string{"UserDTO"}, names)
}
