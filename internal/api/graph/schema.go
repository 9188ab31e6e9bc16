package graph

const schemaString = `
type Question {
  id: ID!
  text: String!
  publishedAt: String!
  wasPublishedRecently: Boolean!
}

type Choice {
  id: ID!
  text: String!
  votes: Int!
}

type QuestionDetail {
  question: Question!
  choices: [Choice!]!
  others: [Question!]!
}

type QuestionResults {
  question: Question!
  choices: [Choice!]!
  totalVotes: Int!
}

type VoteResult {
  success: Boolean!
  message: String!
  resultsPath: String
}

type Query {
  # 最新发布的问题
  latestQuestions: [Question!]!

  # 问题详情，不存在或未发布时返回错误
  question(id: ID!): QuestionDetail

  # 问题的当前票数
  results(id: ID!): QuestionResults
}

type Mutation {
  # 投票
  vote(questionId: ID!, choiceId: ID!): VoteResult!
}

schema {
  query: Query
  mutation: Mutation
}
`
