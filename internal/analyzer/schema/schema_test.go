package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaSDL = `scalar Upload

interface Node {
  id: ID!
}

type User implements Node {
  id: ID!
  name: String
  posts(first: Int): [Post!]!
  avatar: Image
}

type Post implements Node {
  id: ID!
  title: String!
}

union SearchResult = User | Post | Comment

enum Role {
  ADMIN
  MEMBER
}

input NewPost {
  title: String!
}

type Query {
  users: [User!]!
  user(id: ID!): User
}

type Mutation {
  createPost(input: NewPost!): Post
}

extend type Query {
  search(term: String!): [SearchResult!]!
}
`

const serverTS = `import { ApolloServer, gql } from 'apollo-server';

const GET_USERS = gql` + "`" + `
  query GetUsers {
    users { id }
  }
` + "`" + `;

const resolvers = {
  Query: {
    users: () => db.users(),
    async user(_, { id }) {
      return db.user(id);
    },
  },
  Mutation: {
    createPost: (_, { input }) => db.create(input),
  },
};

const server = new ApolloServer({ typeDefs, resolvers });

function Users() {
  const { data } = useQuery(GET_USERS);
  const [create] = useMutation(CREATE_POST, { refetchQueries: [] });
}
`

func findType(t *testing.T, types []Type, name string) Type {
	t.Helper()
	for _, ty := range types {
		if ty.Name == name {
			return ty
		}
	}
	t.Fatalf("type %s not found", name)
	return Type{}
}

func TestParseSDL(t *testing.T) {
	fs := ParseSDL("schema.graphql", schemaSDL)
	assert.Empty(t, fs.warnings)

	kinds := map[string]string{}
	for _, ty := range fs.types {
		kinds[ty.Name] = ty.Kind
	}
	assert.Equal(t, map[string]string{
		"Upload":       KindScalar,
		"Node":         KindInterface,
		"User":         KindObject,
		"Post":         KindObject,
		"SearchResult": KindUnion,
		"Role":         KindEnum,
		"NewPost":      KindInputObject,
		"Query":        KindObject,
		"Mutation":     KindObject,
	}, kinds)

	user := findType(t, fs.types, "User")
	assert.Equal(t, []string{"Node"}, user.Interfaces)
	assert.Equal(t, 7, user.Line)
	require.Len(t, user.Fields, 4)
	assert.Equal(t, Field{Name: "posts", Type: "[Post!]!", Args: []Argument{{Name: "first", Type: "Int"}}}, user.Fields[2])
	assert.Equal(t, []string{"ADMIN", "MEMBER"}, findType(t, fs.types, "Role").EnumValues)
	assert.Equal(t, []string{"User", "Post", "Comment"}, findType(t, fs.types, "SearchResult").PossibleTypes)

	var ops []string
	for _, op := range fs.operations {
		ops = append(ops, op.Kind+":"+op.Name)
	}
	assert.Equal(t, []string{"query:users", "query:user", "mutation:createPost", "query:search"}, ops)
}

func TestParseSDLCustomRoots(t *testing.T) {
	fs := ParseSDL("s.graphql", "schema { query: RootQuery }\ntype RootQuery { ping: String }\n")
	require.Len(t, fs.operations, 1)
	assert.Equal(t, Operation{Name: "ping", Kind: OpQuery, Source: FromSchema, File: "s.graphql", Line: 2}, fs.operations[0])
}

func TestParseSDLFallsBackOnInvalidDocument(t *testing.T) {
	fs := ParseSDL("broken.graphql", "type Query {\n  users: [User]\n}\ntype User {\n  id: ID\n}\ntype {\n")
	require.Len(t, fs.warnings, 1)
	assert.Contains(t, fs.warnings[0], "broken.graphql")
	assert.Equal(t, "users", fs.operations[0].Name)
	findType(t, fs.types, "User")
}

func TestScanSource(t *testing.T) {
	fs := ScanSource("server.ts", serverTS)

	require.Len(t, fs.schemas, 1)
	assert.Equal(t, "ApolloServer", fs.schemas[0].Name)
	assert.Equal(t, 21, fs.schemas[0].Line)

	require.Len(t, fs.resolvers, 1)
	assert.Equal(t, "resolvers", fs.resolvers[0].Name)
	assert.Equal(t, map[string][]string{
		"Query":    {"users", "user"},
		"Mutation": {"createPost"},
	}, fs.resolvers[0].Fields)

	var ops []string
	for _, op := range fs.operations {
		ops = append(ops, op.Source+":"+op.Kind+":"+op.Name)
	}
	assert.Equal(t, []string{
		"document:query:GetUsers",
		"hook:query:GET_USERS",
		"hook:mutation:CREATE_POST",
	}, ops)
	assert.Equal(t, 4, fs.operations[0].Line)
}

func TestEmbeddedTypeDefs(t *testing.T) {
	src := "const typeDefs = gql`\n  type Query {\n    hello: String\n  }\n`;\n"
	fs := ScanSource("index.js", src)
	require.Len(t, fs.types, 1)
	assert.Equal(t, "Query", fs.types[0].Name)
	assert.Equal(t, 2, fs.types[0].Line)
	require.Len(t, fs.operations, 1)
	assert.Equal(t, Operation{Name: "hello", Kind: OpQuery, Source: FromSchema, File: "index.js", Line: 3}, fs.operations[0])
}

func TestValidate(t *testing.T) {
	res := &Result{}
	sdl := ParseSDL("schema.graphql", schemaSDL)
	src := ScanSource("server.ts", serverTS)
	res.Types = append(sdl.types, src.types...)
	res.Operations = append(sdl.operations, src.operations...)
	res.Resolvers = src.resolvers

	assert.Equal(t, []string{
		"Undefined type 'Image' in User.avatar",
		"Union SearchResult references undefined type 'Comment'",
		"Missing resolver for query: search",
	}, Validate(res))

	res.Resolvers = []Resolver{{Name: "searchResolver"}}
	issues := Validate(res)
	assert.Contains(t, issues, "Missing resolver for query: users")
	assert.NotContains(t, issues, "Missing resolver for query: search")
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.graphql")
	srcPath := filepath.Join(dir, "server.ts")
	require.NoError(t, os.WriteFile(schemaPath, []byte(schemaSDL), 0o644))
	require.NoError(t, os.WriteFile(srcPath, []byte(serverTS), 0o644))

	a, err := New()
	require.NoError(t, err)
	res, err := a.Analyze(context.Background(), []string{schemaPath, srcPath, filepath.Join(dir, "README.md")})
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Len(t, res.Types, 9)
	assert.Equal(t, []string{"users", "user", "search", "GetUsers", "GET_USERS"}, res.Queries)
	assert.Equal(t, []string{"createPost", "CREATE_POST"}, res.Mutations)
	assert.Empty(t, res.Subscriptions)
	assert.Len(t, res.Issues, 3)
	assert.Equal(t, res.Issues, res.Warnings)
	assert.Equal(t, 3, res.Metadata["issueCount"])
}
